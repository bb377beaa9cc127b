package parser

import (
	"strings"
)

var profileHosts = []string{
	"https://x.com",
	"https://twitter.com",
	"https://mobile.twitter.com",
}

// Top-level routes that look like profile links but are not accounts.
var reservedRoutes = map[string]struct{}{
	"home":          {},
	"explore":       {},
	"notifications": {},
	"messages":      {},
	"settings":      {},
	"search":        {},
	"compose":       {},
	"i":             {},
}

// ExtractProfileHandles pulls account handles out of profile link hrefs
// scraped from a repost page, e.g. "/alice" or "https://x.com/alice".
// Status, photo and header links are ignored. Handles are deduplicated in
// first-seen order.
func ExtractProfileHandles(hrefs []string) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for _, href := range hrefs {
		handle, ok := profileHandle(href)
		if !ok {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		out = append(out, handle)
	}
	return out
}

func profileHandle(href string) (string, bool) {
	href = strings.TrimSpace(href)
	for _, host := range profileHosts {
		if rest, ok := strings.CutPrefix(href, host); ok {
			href = rest
			break
		}
	}
	if !strings.HasPrefix(href, "/") {
		return "", false
	}
	if strings.Contains(href, "/status/") || strings.Contains(href, "/photo") || strings.Contains(href, "/header_photo") {
		return "", false
	}
	name := strings.TrimPrefix(href, "/")
	if !ValidHandle(name) {
		return "", false
	}
	if _, reserved := reservedRoutes[name]; reserved {
		return "", false
	}
	return name, true
}

// FormatHandleList renders handles one per line with a leading @, the form
// accepted by manual entry.
func FormatHandleList(handles []string) string {
	lines := make([]string, 0, len(handles))
	for _, h := range handles {
		lines = append(lines, "@"+h)
	}
	return strings.Join(lines, "\n")
}
