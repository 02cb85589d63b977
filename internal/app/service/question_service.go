package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/platform/database"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type QuestionService struct {
	db           *sql.DB
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	tagRepo      repository.TagRepository
}

func NewQuestionService(
	db *sql.DB,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	tagRepo repository.TagRepository,
) *QuestionService {
	return &QuestionService{
		db:           db,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		tagRepo:      tagRepo,
	}
}

type ListQuestionsQuery struct {
	Category string
	Course   string
	Tag      string
	Search   string
	Sort     string
	Page     int
	PageSize int
}

type QuestionPage struct {
	Questions  []model.Question `json:"questions"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
}

func (s *QuestionService) List(ctx context.Context, q ListQuestionsQuery) (*QuestionPage, error) {
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	filter := model.QuestionFilter{
		Category: q.Category,
		Course:   q.Course,
		Search:   q.Search,
		Sort:     model.ParseQuestionSort(q.Sort),
		Limit:    size,
		Offset:   (page - 1) * size,
	}
	if q.Tag != "" {
		if tags := model.NormalizeTags([]string{q.Tag}); len(tags) == 1 {
			filter.Tag = tags[0]
		}
	}

	questions, total, err := s.questionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return &QuestionPage{
		Questions:  questions,
		Total:      total,
		Page:       page,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// Get counts a view on every call, regardless of who is asking, then returns
// the question with its answers oldest first.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.QuestionDetail, error) {
	if _, err := s.questionRepo.IncrementViews(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	q, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	answers, err := s.answerRepo.ListByQuestion(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	return &model.QuestionDetail{Question: q, Answers: answers}, nil
}

type CreateQuestionRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
	Course   string   `json:"course"`
}

func (s *QuestionService) Create(ctx context.Context, author *model.User, req CreateQuestionRequest) (*model.Question, error) {
	q, err := model.NewQuestion(uuid.NewString(), author.ID, req.Title, req.Content, req.Category, req.Course, req.Tags)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tagRepo.Ensure(ctx, tx, q.Tags); err != nil {
			return err
		}
		return s.questionRepo.Create(ctx, tx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	summary := author.Summary()
	q.Author = &summary
	return q, nil
}

func (s *QuestionService) Update(ctx context.Context, userID, id string, raw map[string]json.RawMessage) (*model.Question, error) {
	if err := common.CheckAllowedKeys(raw, model.QuestionUpdateKeys...); err != nil {
		return nil, err
	}
	var upd model.QuestionUpdate
	if err := decodeRaw(raw, &upd); err != nil {
		return nil, err
	}

	q, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if q.AuthorID != userID {
		return nil, common.Forbidden("Not authorized to update this question")
	}
	if err := upd.Apply(q); err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tagRepo.Ensure(ctx, tx, q.Tags); err != nil {
			return err
		}
		return s.questionRepo.Update(ctx, tx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return q, nil
}

// Delete removes a question and, through cascade, its answers, comments and votes.
func (s *QuestionService) Delete(ctx context.Context, actor *model.User, id string) error {
	q, err := s.questionRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load question: %w", err)
	}
	if q.AuthorID != actor.ID && !actor.IsAdmin {
		return common.Forbidden("Not authorized to delete this question")
	}
	if err := s.questionRepo.Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}
