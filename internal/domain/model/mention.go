package model

import (
	"regexp"
	"strings"
	"unicode"
)

var mentionPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])@([\p{L}\p{N}_.\-]+)`)

// MentionHandle is how a user is written after "@": the display name
// lower-cased with everything but letters and digits removed, so
// "Amina Yusuf" is @aminayusuf.
func MentionHandle(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
}

// ParseMentions returns the distinct handles written as @handle in content,
// in first-seen order. Email addresses are not mentions.
func ParseMentions(content string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		h := MentionHandle(m[1])
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// ResolveMentions returns the participants named in content. A handle that
// matches nobody, or more than one participant, is ignored.
func ResolveMentions(content string, participants []UserSummary) []UserSummary {
	handles := ParseMentions(content)
	if len(handles) == 0 {
		return nil
	}

	byHandle := map[string][]UserSummary{}
	for _, p := range participants {
		h := MentionHandle(p.Name)
		if h == "" || p.ID == "" {
			continue
		}
		dup := false
		for _, existing := range byHandle[h] {
			if existing.ID == p.ID {
				dup = true
				break
			}
		}
		if !dup {
			byHandle[h] = append(byHandle[h], p)
		}
	}

	var out []UserSummary
	for _, h := range handles {
		if matches := byHandle[h]; len(matches) == 1 {
			out = append(out, matches[0])
		}
	}
	return out
}
