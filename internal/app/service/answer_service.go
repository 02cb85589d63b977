package service

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/platform/database"
	"kaab_hub/internal/platform/realtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AnswerService struct {
	db           *sql.DB
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	effects      sideEffects
}

func NewAnswerService(
	db *sql.DB,
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	notifier NotificationDispatcher,
	publisher EventPublisher,
	log *logrus.Entry,
) *AnswerService {
	return &AnswerService{
		db:           db,
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		effects:      sideEffects{notifier: notifier, publisher: publisher, log: log},
	}
}

// ListByQuestion returns a question's answers newest first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	if _, err := s.questionRepo.FindByID(ctx, questionID); err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	answers, err := s.answerRepo.ListByQuestion(ctx, questionID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

// Create posts an answer, tells the question's author and pushes it to the question room.
func (s *AnswerService) Create(ctx context.Context, author *model.User, questionID, content string) (*model.Answer, error) {
	q, err := s.questionRepo.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}

	a, err := model.NewAnswer(uuid.NewString(), q.ID, author.ID, content)
	if err != nil {
		return nil, err
	}
	if err := s.answerRepo.Create(ctx, nil, a); err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}
	summary := author.Summary()
	a.Author = &summary

	s.effects.notify(ctx, model.NotificationJob{
		Type:        model.NotificationAnswer,
		RecipientID: q.AuthorID,
		ActorID:     author.ID,
		ActorName:   author.Name,
		QuestionID:  q.ID,
		AnswerID:    a.ID,
		Title:       q.Title,
	})
	s.effects.publish(ctx, q.ID, realtime.EventAnswer, a)
	s.notifyMentions(ctx, author, q, a.ID, content, q.AuthorID)
	return a, nil
}

func (s *AnswerService) Update(ctx context.Context, userID, id, content string) (*model.Answer, error) {
	a, err := s.answerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	if a.AuthorID != userID {
		return nil, common.Forbidden("Not authorized to update this answer")
	}
	if err := a.SetContent(content); err != nil {
		return nil, err
	}
	if err := s.answerRepo.UpdateContent(ctx, nil, a); err != nil {
		return nil, fmt.Errorf("failed to update answer: %w", err)
	}
	return a, nil
}

// Delete removes an answer. If it was the accepted one the question is reopened.
func (s *AnswerService) Delete(ctx context.Context, actor *model.User, id string) error {
	a, err := s.answerRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load answer: %w", err)
	}
	if a.AuthorID != actor.ID && !actor.IsAdmin {
		return common.Forbidden("Not authorized to delete this answer")
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.questionRepo.LockForUpdate(ctx, tx, a.QuestionID); err != nil {
			return err
		}
		if err := s.questionRepo.ClearSolved(ctx, tx, a.QuestionID, a.ID); err != nil {
			return err
		}
		return s.answerRepo.Delete(ctx, tx, a.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	return nil
}

// AddComment appends a comment and tells anyone it @-mentions.
func (s *AnswerService) AddComment(ctx context.Context, author *model.User, answerID, content string) (*model.Answer, error) {
	parent, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	c, err := model.NewComment(uuid.NewString(), answerID, author.ID, content)
	if err != nil {
		return nil, err
	}
	if err := s.answerRepo.AddComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	a, err := s.answerRepo.FindByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload answer: %w", err)
	}

	if len(model.ParseMentions(c.Content)) > 0 {
		if q, err := s.questionRepo.FindByID(ctx, parent.QuestionID); err == nil {
			s.notifyMentions(ctx, author, q, answerID, c.Content)
		} else {
			s.effects.warn(err, "failed to load question for mentions")
		}
	}
	return a, nil
}

// notifyMentions queues a mention for every thread participant named in
// content, except recipients in skip who were already told about this post.
func (s *AnswerService) notifyMentions(ctx context.Context, author *model.User, q *model.Question, answerID, content string, skip ...string) {
	if len(model.ParseMentions(content)) == 0 {
		return
	}
	answers, err := s.answerRepo.ListByQuestion(ctx, q.ID, false)
	if err != nil {
		s.effects.warn(err, "failed to load thread for mentions")
		return
	}

	for _, u := range model.ResolveMentions(content, threadParticipants(q, answers)) {
		if slices.Contains(skip, u.ID) {
			continue
		}
		s.effects.notify(ctx, model.NotificationJob{
			Type:        model.NotificationMention,
			RecipientID: u.ID,
			ActorID:     author.ID,
			ActorName:   author.Name,
			QuestionID:  q.ID,
			AnswerID:    answerID,
			Title:       q.Title,
		})
	}
}

// threadParticipants lists the question author and everyone who answered or
// commented on it.
func threadParticipants(q *model.Question, answers []model.Answer) []model.UserSummary {
	var out []model.UserSummary
	if q.Author != nil {
		out = append(out, *q.Author)
	}
	for _, a := range answers {
		if a.Author != nil {
			out = append(out, *a.Author)
		}
		for _, c := range a.Comments {
			if c.Author != nil {
				out = append(out, *c.Author)
			}
		}
	}
	return out
}
