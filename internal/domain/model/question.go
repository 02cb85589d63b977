package model

import (
	"strings"
	"time"

	"kaab_hub/internal/common"
)

type Question struct {
	ID        string       `json:"id"`
	Title     string       `json:"title" validate:"required,max=300"`
	Content   string       `json:"content" validate:"required"`
	AuthorID  string       `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	Tags      []string     `json:"tags"`
	Category  string       `json:"category" validate:"required,max=100"`
	Course    string       `json:"course,omitempty" validate:"max=100"`
	Upvotes   []string     `json:"upvotes"`
	Downvotes []string     `json:"downvotes"`
	AnswerIDs []string     `json:"answerIds"`
	Views     int          `json:"views"`
	IsSolved  bool         `json:"isSolved"`
	SolvedBy  *string      `json:"solvedBy,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// QuestionDetail is a question with its answers populated, oldest first.
type QuestionDetail struct {
	*Question
	Answers []Answer `json:"answers"`
}

// QuestionSort is the ordering accepted by question listings.
type QuestionSort string

const (
	SortByCreatedAt QuestionSort = "createdAt"
	SortByViews     QuestionSort = "views"
	SortByUpvotes   QuestionSort = "upvotes"
)

// ParseQuestionSort falls back to newest first for anything unknown.
func ParseQuestionSort(s string) QuestionSort {
	switch QuestionSort(s) {
	case SortByViews, SortByUpvotes:
		return QuestionSort(s)
	}
	return SortByCreatedAt
}

type QuestionFilter struct {
	Category string
	Course   string
	Tag      string
	Search   string
	Sort     QuestionSort
	Limit    int
	Offset   int
}

// NewQuestion trims and validates user input into a question owned by authorID.
func NewQuestion(id, authorID, title, content, category, course string, tags []string) (*Question, error) {
	q := &Question{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Content:   content,
		AuthorID:  authorID,
		Tags:      NormalizeTags(tags),
		Category:  strings.TrimSpace(category),
		Course:    strings.TrimSpace(course),
		Upvotes:   []string{},
		Downvotes: []string{},
		AnswerIDs: []string{},
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Question) Validate() error {
	if strings.TrimSpace(q.Content) == "" {
		q.Content = ""
	}
	return common.Validate(q)
}

// QuestionUpdateKeys are the only fields an author may change.
var QuestionUpdateKeys = []string{"title", "content", "tags", "category", "course"}

type QuestionUpdate struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	Category *string   `json:"category"`
	Course   *string   `json:"course"`
}

// Apply copies the set fields onto q and re-validates it.
func (u QuestionUpdate) Apply(q *Question) error {
	if u.Title != nil {
		q.Title = strings.TrimSpace(*u.Title)
	}
	if u.Content != nil {
		q.Content = *u.Content
	}
	if u.Tags != nil {
		q.Tags = NormalizeTags(*u.Tags)
	}
	if u.Category != nil {
		q.Category = strings.TrimSpace(*u.Category)
	}
	if u.Course != nil {
		q.Course = strings.TrimSpace(*u.Course)
	}
	return q.Validate()
}

// NormalizeTags trims and lower-cases each tag, collapses inner whitespace and
// drops blanks and duplicates, keeping first-seen order. Punctuation and
// non-Latin text are kept as written.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s := strings.ToLower(strings.Join(strings.Fields(t), " "))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
