package services

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// DefaultPostLength is the character budget of one announcement post,
// counted in UTF-16 code units the way the posting client counts them.
const DefaultPostLength = 250

// BuildSharePosts renders a winner announcement, split into as many posts
// as needed so that no post exceeds maxLen characters and no @handle line
// is split across posts. The header always opens the first post.
func BuildSharePosts(eventName string, totalParticipants int, winners []string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultPostLength
	}

	title := "🎉 Winners announced!"
	if eventName != "" {
		title = fmt.Sprintf("🎉 [%s] Winners announced!", eventName)
	}
	header := fmt.Sprintf("%s\n\n%d of %d participants won!\n\nCongratulations! 🎊", title, len(winners), totalParticipants)

	var (
		posts   []string
		current = header
	)
	for _, handle := range winners {
		line := "\n@" + handle
		if postLength(current)+postLength(line) > maxLen {
			posts = append(posts, strings.TrimSpace(current))
			current = strings.TrimSpace(line)
			continue
		}
		current += line
	}
	if strings.TrimSpace(current) != "" {
		posts = append(posts, strings.TrimSpace(current))
	}
	return posts
}

// postLength counts s in UTF-16 code units, so an emoji outside the BMP
// costs two.
func postLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
