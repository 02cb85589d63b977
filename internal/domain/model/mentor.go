package model

import "github.com/gosimple/slug"

type Testimonial struct {
	Name  string `json:"name"`
	Quote string `json:"quote"`
}

type SocialLinks struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Mentor is a read-only catalog entry, looked up by slug.
type Mentor struct {
	Slug         string        `json:"slug"`
	Name         string        `json:"name"`
	Skill        string        `json:"skill"`
	Intro        string        `json:"intro"`
	Location     string        `json:"location"`
	Email        string        `json:"email"`
	Bio          string        `json:"bio"`
	Skills       []string      `json:"skills"`
	Testimonials []Testimonial `json:"testimonials"`
	Social       SocialLinks   `json:"social"`
	Image        string        `json:"image"`
}

type MentorFilter struct {
	Skill    string
	Location string
}

// MentorSlug turns a path segment or display name into a catalog slug.
func MentorSlug(raw string) string {
	return slug.Make(raw)
}
