package service

import (
	"context"
	"fmt"
	"strings"

	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
)

type MentorService struct {
	repo repository.MentorRepository
}

func NewMentorService(repo repository.MentorRepository) *MentorService {
	return &MentorService{repo: repo}
}

func (s *MentorService) List(ctx context.Context, filter model.MentorFilter) ([]model.Mentor, error) {
	filter.Skill = strings.TrimSpace(filter.Skill)
	filter.Location = strings.TrimSpace(filter.Location)
	mentors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}
	return mentors, nil
}

func (s *MentorService) Get(ctx context.Context, slug string) (*model.Mentor, error) {
	m, err := s.repo.FindBySlug(ctx, model.MentorSlug(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to load mentor: %w", err)
	}
	return m, nil
}
