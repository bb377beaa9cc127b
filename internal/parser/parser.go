// Package parser turns text copied from a repost list into raffle participants.
package parser

import (
	"regexp"
	"strings"

	"raffle/internal/models"
)

// HandlePattern matches an @handle token. The first submatch is the handle.
var HandlePattern = regexp.MustCompile(`@([a-zA-Z0-9_]+)`)

var handleToken = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// reservedPrefix marks ad and system accounts injected into repost lists.
const reservedPrefix = "@band_"

// boilerplate holds page chrome and profile filler that show up when a
// repost list is copied. A line containing any of these is ignored.
var boilerplate = []string{
	"나를 팔로우합니다",
	"실시간 트렌드",
	"무슨 일이 일어나고 있나요?",
	"프본아님",
	"Follows you",
	"Follow notifications",
	"Trending now",
	"What's happening?",
	"Senior Front-end Software Engineer",
	"Software Engineer",
	"DOCUMENTARY PHOTOGRAPHER",
}

func isNoise(line string) bool {
	if strings.Contains(line, "http://") || strings.Contains(line, "https://") {
		return true
	}
	if strings.HasPrefix(line, reservedPrefix) {
		return true
	}
	for _, s := range boilerplate {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// Parse extracts participants from pasted repost text.
//
// Each handle line is paired with the closest preceding non-handle line,
// which becomes its display name. A handle with no pending display name is
// dropped, and repeated handles keep their first entry. The result is in
// first-seen order and is empty when nothing matched.
func Parse(text string) []models.Participant {
	var (
		out     []models.Participant
		seen    = make(map[string]struct{})
		pending string
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isNoise(line) {
			continue
		}

		if m := HandlePattern.FindStringSubmatch(line); m != nil {
			handle := m[1]
			if _, dup := seen[handle]; pending != "" && !dup {
				seen[handle] = struct{}{}
				out = append(out, models.NewParticipant(handle, pending))
				pending = ""
			}
			continue
		}

		if !strings.HasPrefix(line, "@") {
			pending = line
		}
	}

	return out
}

// ParseHandles returns a participant for every @handle token in text, in
// first-seen order, with the handle as display name. Reserved system
// accounts are skipped.
func ParseHandles(text string) []models.Participant {
	var out []models.Participant
	seen := make(map[string]struct{})
	for _, m := range HandlePattern.FindAllStringSubmatch(text, -1) {
		handle := m[1]
		if strings.HasPrefix("@"+handle, reservedPrefix) {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		out = append(out, models.NewParticipant(handle, ""))
	}
	return out
}

// NormalizeHandle trims whitespace and a leading @ from user input.
func NormalizeHandle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// ValidHandle reports whether s is a bare handle token.
func ValidHandle(s string) bool {
	return handleToken.MatchString(s)
}
