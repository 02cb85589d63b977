package service

import (
	"context"
	"fmt"
	"strings"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
)

const defaultSearchLimit = 50

type SearchService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
}

func NewSearchService(questionRepo repository.QuestionRepository, answerRepo repository.AnswerRepository) *SearchService {
	return &SearchService{questionRepo: questionRepo, answerRepo: answerRepo}
}

// Search matches the query as a case-insensitive substring. There is no ranking
// beyond the chosen sort order.
func (s *SearchService) Search(ctx context.Context, query, filter, sort string) (*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.BadRequest("Search query is required")
	}
	f := model.ParseSearchFilter(query, filter, sort, defaultSearchLimit)

	result := &model.SearchResult{Questions: []model.Question{}, Answers: []model.Answer{}}
	if f.IncludesQuestions() {
		questions, err := s.questionRepo.Search(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to search questions: %w", err)
		}
		result.Questions = questions
	}
	if f.IncludesAnswers() {
		answers, err := s.answerRepo.Search(ctx, f.Query, f.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search answers: %w", err)
		}
		result.Answers = answers
	}
	return result, nil
}
