package service

import (
	"context"
	"fmt"

	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
)

type TagService struct {
	tagRepo      repository.TagRepository
	questionRepo repository.QuestionRepository
}

func NewTagService(tagRepo repository.TagRepository, questionRepo repository.QuestionRepository) *TagService {
	return &TagService{tagRepo: tagRepo, questionRepo: questionRepo}
}

// List returns every tag with a short preview of its newest questions.
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	for i := range tags {
		recent, _, err := s.questionRepo.List(ctx, model.QuestionFilter{
			Tag:   tags[i].Name,
			Sort:  model.SortByCreatedAt,
			Limit: model.RecentQuestionsPerTag,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load questions for tag %s: %w", tags[i].Name, err)
		}
		tags[i].RecentQuestions = recent
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, name string) (*model.Tag, error) {
	t, err := s.tagRepo.FindByName(ctx, tagName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return t, nil
}

func (s *TagService) Questions(ctx context.Context, name string) ([]model.Question, error) {
	t, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	questions, _, err := s.questionRepo.List(ctx, model.QuestionFilter{
		Tag:   t.Name,
		Sort:  model.SortByCreatedAt,
		Limit: maxPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for tag: %w", err)
	}
	return questions, nil
}

func (s *TagService) Follow(ctx context.Context, userID, name string) (*model.Tag, error) {
	t, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.tagRepo.Follow(ctx, t.Name, userID); err != nil {
		return nil, fmt.Errorf("failed to follow tag: %w", err)
	}
	return s.Get(ctx, t.Name)
}

func (s *TagService) Unfollow(ctx context.Context, userID, name string) (*model.Tag, error) {
	t, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.tagRepo.Unfollow(ctx, t.Name, userID); err != nil {
		return nil, fmt.Errorf("failed to unfollow tag: %w", err)
	}
	return s.Get(ctx, t.Name)
}

// tagName normalizes a path segment the same way tags are normalized on write.
func tagName(raw string) string {
	if tags := model.NormalizeTags([]string{raw}); len(tags) == 1 {
		return tags[0]
	}
	return raw
}

