package model

import (
	"strings"
	"time"

	"kaab_hub/internal/common"
)

type Answer struct {
	ID         string       `json:"id"`
	Content    string       `json:"content" validate:"required"`
	AuthorID   string       `json:"authorId"`
	Author     *UserSummary `json:"author,omitempty"`
	QuestionID string       `json:"questionId"`
	Upvotes    []string     `json:"upvotes"`
	Downvotes  []string     `json:"downvotes"`
	IsAccepted bool         `json:"isAccepted"`
	Comments   []Comment    `json:"comments"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

type Comment struct {
	ID        string       `json:"id"`
	AnswerID  string       `json:"-"`
	Content   string       `json:"content" validate:"required,max=2000"`
	AuthorID  string       `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

func NewAnswer(id, questionID, authorID, content string) (*Answer, error) {
	a := &Answer{
		ID:         id,
		Content:    blankToEmpty(content),
		AuthorID:   authorID,
		QuestionID: questionID,
		Upvotes:    []string{},
		Downvotes:  []string{},
		Comments:   []Comment{},
	}
	if err := common.Validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

func NewComment(id, answerID, authorID, content string) (*Comment, error) {
	c := &Comment{
		ID:       id,
		AnswerID: answerID,
		Content:  strings.TrimSpace(content),
		AuthorID: authorID,
	}
	if err := common.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetContent replaces the body of an answer, rejecting blank text.
func (a *Answer) SetContent(content string) error {
	a.Content = blankToEmpty(content)
	return common.Validate(a)
}

func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
