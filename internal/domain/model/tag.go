package model

import "time"

type Tag struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	QuestionCount   int           `json:"questionCount"`
	FollowersCount  int           `json:"followersCount"`
	Followers       []UserSummary `json:"followers,omitempty"`
	RecentQuestions []Question    `json:"recentQuestions,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// RecentQuestionsPerTag caps the preview attached to tag listings.
const RecentQuestionsPerTag = 3
