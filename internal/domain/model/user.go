package model

import (
	"strings"
	"time"

	"kaab_hub/internal/common"
)

type NotificationPreferences struct {
	EmailNotifications   bool `json:"emailNotifications"`
	PushNotifications    bool `json:"pushNotifications"`
	AnswerNotifications  bool `json:"answerNotifications"`
	UpvoteNotifications  bool `json:"upvoteNotifications"`
	MentionNotifications bool `json:"mentionNotifications"`
}

type PrivacySettings struct {
	ShowEmail      bool `json:"showEmail"`
	ShowUniversity bool `json:"showUniversity"`
	ShowCourse     bool `json:"showCourse"`
	ShowYear       bool `json:"showYear"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications:   true,
		PushNotifications:    true,
		AnswerNotifications:  true,
		UpvoteNotifications:  true,
		MentionNotifications: true,
	}
}

func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ShowEmail:      false,
		ShowUniversity: true,
		ShowCourse:     true,
		ShowYear:       true,
	}
}

type User struct {
	ID                      string                  `json:"id"`
	Name                    string                  `json:"name"`
	Email                   string                  `json:"email,omitempty"`
	HashedPassword          string                  `json:"-"` // Not exposed
	ProfilePicture          string                  `json:"profilePicture"`
	Bio                     string                  `json:"bio"`
	University              string                  `json:"university,omitempty"`
	Course                  string                  `json:"course,omitempty"`
	Year                    *int                    `json:"year,omitempty"`
	Location                string                  `json:"location,omitempty"`
	Field                   string                  `json:"field,omitempty"`
	Reputation              int                     `json:"reputation"`
	IsAdmin                 bool                    `json:"isAdmin"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	PrivacySettings         PrivacySettings         `json:"privacySettings"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// UserSummary is the author shape embedded in content listings.
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfilePicture: u.ProfilePicture}
}

// Profile is a user plus their authored content, as shown on profile pages.
type Profile struct {
	*User
	QuestionsAsked  []Question `json:"questionsAsked"`
	AnswersProvided []Answer   `json:"answersProvided"`
}

// ApplyPrivacy blanks the fields the owner chose to hide from other viewers.
func (u User) ApplyPrivacy() User {
	if !u.PrivacySettings.ShowEmail {
		u.Email = ""
	}
	if !u.PrivacySettings.ShowUniversity {
		u.University = ""
	}
	if !u.PrivacySettings.ShowCourse {
		u.Course = ""
	}
	if !u.PrivacySettings.ShowYear {
		u.Year = nil
	}
	return u
}

// NormalizeEmail trims and lower-cases an address before lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds a user with default settings. Validation of the raw
// registration payload happens before the password is hashed.
func NewUser(id, name, email, hashedPassword, university, course string, year *int) *User {
	return &User{
		ID:                      id,
		Name:                    strings.TrimSpace(name),
		Email:                   NormalizeEmail(email),
		HashedPassword:          hashedPassword,
		University:              strings.TrimSpace(university),
		Course:                  strings.TrimSpace(course),
		Year:                    year,
		NotificationPreferences: DefaultNotificationPreferences(),
		PrivacySettings:         DefaultPrivacySettings(),
	}
}

// UserUpdateKeys are the profile fields a user may change directly.
var UserUpdateKeys = []string{"name", "bio", "university", "course", "year", "location", "field"}

type ProfileUpdate struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	University *string `json:"university"`
	Course     *string `json:"course"`
	Year       *int    `json:"year"`
	Location   *string `json:"location"`
	Field      *string `json:"field"`
}

type profileFields struct {
	Name string `json:"name" validate:"required,max=100"`
	Bio  string `json:"bio" validate:"max=500"`
	Year *int   `json:"year" validate:"omitempty,min=1,max=10"`
}

// Apply copies the set fields onto u and validates the result.
func (p ProfileUpdate) Apply(u *User) error {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Bio != nil {
		u.Bio = strings.TrimSpace(*p.Bio)
	}
	if p.University != nil {
		u.University = strings.TrimSpace(*p.University)
	}
	if p.Course != nil {
		u.Course = strings.TrimSpace(*p.Course)
	}
	if p.Year != nil {
		u.Year = p.Year
	}
	if p.Location != nil {
		u.Location = strings.TrimSpace(*p.Location)
	}
	if p.Field != nil {
		u.Field = strings.TrimSpace(*p.Field)
	}
	return common.Validate(profileFields{Name: u.Name, Bio: u.Bio, Year: u.Year})
}
