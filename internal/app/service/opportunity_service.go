package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"

	"github.com/google/uuid"
)

type OpportunityService struct {
	repo repository.OpportunityRepository
}

func NewOpportunityService(repo repository.OpportunityRepository) *OpportunityService {
	return &OpportunityService{repo: repo}
}

func (s *OpportunityService) List(ctx context.Context, filter model.OpportunityFilter) ([]model.Opportunity, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	return items, nil
}

type CreateOpportunityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Field       string `json:"field"`
	Deadline    string `json:"deadline"`
	Link        string `json:"link"`
}

// deadlineLayouts are the accepted deadline formats: HTML date inputs send the
// first, API clients usually the second.
var deadlineLayouts = []string{"2006-01-02", time.RFC3339}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.NewError(common.ErrValidation, "deadline is required")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, common.NewError(common.ErrValidation, "deadline must be a date (YYYY-MM-DD)")
}

// Create stores an opportunity posted by author. Any author id in the body is ignored.
func (s *OpportunityService) Create(ctx context.Context, author *model.User, req CreateOpportunityRequest) (*model.Opportunity, error) {
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}
	o, err := model.NewOpportunity(uuid.NewString(), author.ID, model.NewOpportunityInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Field:       req.Field,
		Deadline:    deadline,
		Link:        req.Link,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	summary := author.Summary()
	o.Author = &summary
	return o, nil
}
