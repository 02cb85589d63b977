// Package voting holds the state rules for up/down votes and answer acceptance.
// Nothing here touches storage; repositories persist the outcomes.
package voting

import (
	"errors"
	"strings"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	// None is a user's state after toggling their vote off.
	None Direction = ""
)

// Target names the kind of content being voted on.
type Target string

const (
	TargetQuestion Target = "question"
	TargetAnswer   Target = "answer"
)

// AcceptedAnswerReward is the reputation granted to an answer's author on acceptance.
const AcceptedAnswerReward = 15

var (
	ErrInvalidDirection  = errors.New("vote direction must be up or down")
	ErrNotQuestionAuthor = errors.New("only the question author can accept an answer")
	ErrAnswerMismatch    = errors.New("answer does not belong to question")
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	}
	return None, ErrInvalidDirection
}

// Outcome is the membership after a toggle plus the acting user's before/after vote.
type Outcome struct {
	Upvotes   []string
	Downvotes []string
	Previous  Direction
	Current   Direction
}

// Added reports whether the toggle put a new vote in dir.
func (o Outcome) Added(dir Direction) bool {
	return o.Current == dir && o.Previous != dir
}

// Apply toggles userID's vote in dir. Voting the same way twice removes the
// vote; voting the other way moves it. The returned sets never share a member.
func Apply(upvotes, downvotes []string, userID string, dir Direction) Outcome {
	hasUp := contains(upvotes, userID)
	hasDown := contains(downvotes, userID)

	out := Outcome{
		Upvotes:   without(upvotes, userID),
		Downvotes: without(downvotes, userID),
	}
	switch {
	case hasUp:
		out.Previous = Up
	case hasDown:
		out.Previous = Down
	}

	switch dir {
	case Up:
		if !hasUp {
			out.Upvotes = append(out.Upvotes, userID)
			out.Current = Up
		}
	case Down:
		if !hasDown {
			out.Downvotes = append(out.Downvotes, userID)
			out.Current = Down
		}
	}
	return out
}

// Score is upvotes minus downvotes.
func Score(upvotes, downvotes []string) int {
	return len(upvotes) - len(downvotes)
}

// QuestionState is the slice of a question that acceptance depends on.
type QuestionState struct {
	ID       string
	AuthorID string
	SolvedBy *string
}

// AnswerState is the slice of an answer that acceptance depends on.
type AnswerState struct {
	ID         string
	QuestionID string
	AuthorID   string
	IsAccepted bool
}

// AcceptancePlan lists the writes an acceptance needs.
type AcceptancePlan struct {
	// NoOp is set when the answer is already the accepted one.
	NoOp bool
	// Unaccept is the previously accepted answer that loses its flag, if any.
	Unaccept string
	// Reward goes to RewardUserID.
	Reward       int
	RewardUserID string
}

// PlanAcceptance decides what accepting answer on question by actingUserID does.
// Re-accepting the current answer changes nothing; accepting another answer
// moves the flag and rewards the new author without revoking the earlier grant.
func PlanAcceptance(q QuestionState, a AnswerState, actingUserID string) (AcceptancePlan, error) {
	if q.AuthorID != actingUserID {
		return AcceptancePlan{}, ErrNotQuestionAuthor
	}
	if a.QuestionID != q.ID {
		return AcceptancePlan{}, ErrAnswerMismatch
	}
	if q.SolvedBy != nil && *q.SolvedBy == a.ID && a.IsAccepted {
		return AcceptancePlan{NoOp: true}, nil
	}

	plan := AcceptancePlan{
		Reward:       AcceptedAnswerReward,
		RewardUserID: a.AuthorID,
	}
	if q.SolvedBy != nil && *q.SolvedBy != a.ID {
		plan.Unaccept = *q.SolvedBy
	}
	if a.IsAccepted {
		// Flag already set but the question lost track of it; repair without paying twice.
		plan.Reward = 0
		plan.RewardUserID = ""
	}
	return plan, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
