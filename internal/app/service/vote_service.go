package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/domain/voting"
	"kaab_hub/internal/platform/database"
	"kaab_hub/internal/platform/realtime"

	"github.com/sirupsen/logrus"
)

// VoteService applies vote toggles and answer acceptance. Every read-modify-write
// runs in a transaction holding the target row lock.
type VoteService struct {
	db           *sql.DB
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	voteRepo     repository.VoteRepository
	userRepo     repository.UserRepository
	recorder     VoteRecorder
	effects      sideEffects
}

func NewVoteService(
	db *sql.DB,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	voteRepo repository.VoteRepository,
	userRepo repository.UserRepository,
	recorder VoteRecorder,
	notifier NotificationDispatcher,
	publisher EventPublisher,
	log *logrus.Entry,
) *VoteService {
	return &VoteService{
		db:           db,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		voteRepo:     voteRepo,
		userRepo:     userRepo,
		recorder:     recorder,
		effects:      sideEffects{notifier: notifier, publisher: publisher, log: log},
	}
}

// VoteEvent is the realtime payload sent after a vote.
type VoteEvent struct {
	Target    voting.Target `json:"target"`
	ID        string        `json:"id"`
	Upvotes   []string      `json:"upvotes"`
	Downvotes []string      `json:"downvotes"`
	Score     int           `json:"score"`
}

// AcceptResult carries both entities touched by an acceptance.
type AcceptResult struct {
	Answer   *model.Answer   `json:"answer"`
	Question *model.Question `json:"question"`
}

func (s *VoteService) VoteQuestion(ctx context.Context, actor *model.User, questionID string, dir voting.Direction) (*model.Question, error) {
	var out voting.Outcome
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.questionRepo.LockForUpdate(ctx, tx, questionID); err != nil {
			return err
		}
		var err error
		out, err = s.toggle(ctx, tx, voting.TargetQuestion, questionID, actor.ID, dir)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to vote on question: %w", err)
	}
	s.record(voting.TargetQuestion, dir, out)

	q, err := s.questionRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload question: %w", err)
	}
	if out.Added(voting.Up) {
		s.effects.notify(ctx, model.NotificationJob{
			Type:        model.NotificationUpvote,
			RecipientID: q.AuthorID,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			QuestionID:  q.ID,
			Title:       q.Title,
		})
	}
	s.effects.publish(ctx, q.ID, realtime.EventVote, VoteEvent{
		Target:    voting.TargetQuestion,
		ID:        q.ID,
		Upvotes:   q.Upvotes,
		Downvotes: q.Downvotes,
		Score:     voting.Score(q.Upvotes, q.Downvotes),
	})
	return q, nil
}

func (s *VoteService) VoteAnswer(ctx context.Context, actor *model.User, answerID string, dir voting.Direction) (*model.Answer, error) {
	var out voting.Outcome
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.answerRepo.LockForUpdate(ctx, tx, answerID); err != nil {
			return err
		}
		var err error
		out, err = s.toggle(ctx, tx, voting.TargetAnswer, answerID, actor.ID, dir)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to vote on answer: %w", err)
	}
	s.record(voting.TargetAnswer, dir, out)

	a, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload answer: %w", err)
	}
	if out.Added(voting.Up) {
		job := model.NotificationJob{
			Type:        model.NotificationUpvote,
			RecipientID: a.AuthorID,
			ActorID:     actor.ID,
			ActorName:   actor.Name,
			QuestionID:  a.QuestionID,
			AnswerID:    a.ID,
		}
		if q, err := s.questionRepo.FindByID(ctx, a.QuestionID); err == nil {
			job.Title = q.Title
		}
		s.effects.notify(ctx, job)
	}
	s.effects.publish(ctx, a.QuestionID, realtime.EventVote, VoteEvent{
		Target:    voting.TargetAnswer,
		ID:        a.ID,
		Upvotes:   a.Upvotes,
		Downvotes: a.Downvotes,
		Score:     voting.Score(a.Upvotes, a.Downvotes),
	})
	return a, nil
}

func (s *VoteService) toggle(ctx context.Context, tx *sql.Tx, target voting.Target, id, userID string, dir voting.Direction) (voting.Outcome, error) {
	up, down, err := s.voteRepo.Load(ctx, tx, target, id)
	if err != nil {
		return voting.Outcome{}, err
	}
	out := voting.Apply(up, down, userID, dir)
	if out.Current == out.Previous {
		return out, nil
	}
	if err := s.voteRepo.Set(ctx, tx, target, id, userID, out.Current); err != nil {
		return voting.Outcome{}, err
	}
	return out, nil
}

func (s *VoteService) record(target voting.Target, dir voting.Direction, out voting.Outcome) {
	if s.recorder == nil {
		return
	}
	result := "added"
	switch {
	case out.Current == voting.None:
		result = "removed"
	case out.Previous != voting.None:
		result = "switched"
	}
	s.recorder.RecordVote(string(target), string(dir), result)
}

// AcceptAnswer marks answerID as the solution of its question on behalf of actor.
func (s *VoteService) AcceptAnswer(ctx context.Context, actor *model.User, answerID string) (*AcceptResult, error) {
	current, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}

	var plan voting.AcceptancePlan
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// Question row first, then answer, everywhere both are locked.
		q, err := s.questionRepo.LockForUpdate(ctx, tx, current.QuestionID)
		if err != nil {
			return err
		}
		a, err := s.answerRepo.LockForUpdate(ctx, tx, answerID)
		if err != nil {
			return err
		}

		plan, err = voting.PlanAcceptance(q, a, actor.ID)
		if err != nil || plan.NoOp {
			return err
		}

		if plan.Unaccept != "" {
			if err := s.answerRepo.SetAccepted(ctx, tx, plan.Unaccept, false); err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
		}
		if err := s.answerRepo.SetAccepted(ctx, tx, a.ID, true); err != nil {
			return err
		}
		if err := s.questionRepo.MarkSolved(ctx, tx, q.ID, a.ID); err != nil {
			return err
		}
		if plan.Reward > 0 {
			return s.userRepo.IncrementReputation(ctx, tx, plan.RewardUserID, plan.Reward)
		}
		return nil
	})
	switch {
	case errors.Is(err, voting.ErrNotQuestionAuthor):
		return nil, common.Forbidden("Only the question author can accept an answer")
	case errors.Is(err, voting.ErrAnswerMismatch):
		return nil, common.BadRequest("Answer does not belong to this question")
	case err != nil:
		return nil, fmt.Errorf("failed to accept answer: %w", err)
	}

	a, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload answer: %w", err)
	}
	q, err := s.questionRepo.FindByID(ctx, a.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload question: %w", err)
	}
	result := &AcceptResult{Answer: a, Question: q}
	if plan.NoOp {
		return result, nil
	}

	s.effects.notify(ctx, model.NotificationJob{
		Type:        model.NotificationAccepted,
		RecipientID: a.AuthorID,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		QuestionID:  q.ID,
		AnswerID:    a.ID,
		Title:       q.Title,
	})
	s.effects.publish(ctx, q.ID, realtime.EventAccepted, result)
	return result, nil
}
