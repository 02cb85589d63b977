package model

import (
	"strings"
	"time"

	"kaab_hub/internal/common"
)

type OpportunityCategory string

const (
	CategoryScholarship OpportunityCategory = "Scholarship"
	CategoryWorkshop    OpportunityCategory = "Workshop"
	CategoryEvent       OpportunityCategory = "Event"
)

type OpportunityLocation string

const (
	LocationMogadishu OpportunityLocation = "Mogadishu"
	LocationHargeisa  OpportunityLocation = "Hargeisa"
	LocationKismayo   OpportunityLocation = "Kismayo"
	LocationBosaso    OpportunityLocation = "Bosaso"
	LocationBaidoa    OpportunityLocation = "Baidoa"
)

type OpportunityField string

const (
	FieldTechnology  OpportunityField = "Technology"
	FieldEducation   OpportunityField = "Education"
	FieldHealth      OpportunityField = "Health"
	FieldBusiness    OpportunityField = "Business"
	FieldEngineering OpportunityField = "Engineering"
	FieldArts        OpportunityField = "Arts"
)

type Opportunity struct {
	ID          string              `json:"id"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"required"`
	Category    OpportunityCategory `json:"category" validate:"required,oneof=Scholarship Workshop Event"`
	Location    OpportunityLocation `json:"location" validate:"required,oneof=Mogadishu Hargeisa Kismayo Bosaso Baidoa"`
	Field       OpportunityField    `json:"field" validate:"required,oneof=Technology Education Health Business Engineering Arts"`
	Deadline    time.Time           `json:"deadline" validate:"required"`
	Link        string              `json:"link,omitempty" validate:"omitempty,url"`
	AuthorID    string              `json:"authorId"`
	Author      *UserSummary        `json:"author,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// OpportunityFilter narrows a listing; empty fields match everything.
type OpportunityFilter struct {
	Category OpportunityCategory `json:"category" validate:"omitempty,oneof=Scholarship Workshop Event"`
	Location OpportunityLocation `json:"location" validate:"omitempty,oneof=Mogadishu Hargeisa Kismayo Bosaso Baidoa"`
	Field    OpportunityField    `json:"field" validate:"omitempty,oneof=Technology Education Health Business Engineering Arts"`
}

func (f OpportunityFilter) Validate() error {
	return common.Validate(f)
}

type NewOpportunityInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Field       string
	Deadline    time.Time
	Link        string
}

func NewOpportunity(id, authorID string, in NewOpportunityInput) (*Opportunity, error) {
	o := &Opportunity{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    OpportunityCategory(strings.TrimSpace(in.Category)),
		Location:    OpportunityLocation(strings.TrimSpace(in.Location)),
		Field:       OpportunityField(strings.TrimSpace(in.Field)),
		Deadline:    in.Deadline,
		Link:        strings.TrimSpace(in.Link),
		AuthorID:    authorID,
	}
	if err := common.Validate(o); err != nil {
		return nil, err
	}
	return o, nil
}
