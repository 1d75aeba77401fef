package tracker

import (
	"net/url"
	"regexp"
	"strings"

	"codetrack-backend/services/tracker/store"
)

// usernamePatterns match the canonical profile URL shape per platform.
// The captured group is the username.
var usernamePatterns = map[store.Platform]*regexp.Regexp{
	store.PlatformLeetcode:   regexp.MustCompile(`leetcode\.com/(?:u/)?([A-Za-z0-9_.-]+)/?$`),
	store.PlatformCodechef:   regexp.MustCompile(`codechef\.com/users/([A-Za-z0-9_.-]+)/?$`),
	store.PlatformCodeforces: regexp.MustCompile(`codeforces\.com/profile/([A-Za-z0-9_.-]+)/?$`),
	store.PlatformGithub:     regexp.MustCompile(`github\.com/([A-Za-z0-9-]+)/?$`),
	store.PlatformCodolio:    regexp.MustCompile(`codolio\.com/profile/([A-Za-z0-9_.-]+)/?$`),
}

// ResolveIdentifier finds the scrape-target username for one platform
// using a fallback chain: explicitly stored username, then the stored
// profile link, then the username embedded in previously scraped stats.
// An empty result means the platform has to be skipped.
func ResolveIdentifier(record *store.StudentRecord, platform store.Platform) string {
	if username := strings.TrimSpace(record.PlatformUsernames[platform]); username != "" {
		return username
	}
	if link := strings.TrimSpace(record.PlatformLinks[platform]); link != "" {
		if username := ParseProfileURL(platform, link); username != "" {
			return username
		}
	}
	if stats := record.Platforms.Get(platform); stats != nil {
		return strings.TrimSpace(stats.Common().Username)
	}
	return ""
}

// ParseProfileURL extracts the username from a stored profile link. The
// link may be a full URL, a schemeless host/path, or a bare username.
// Unrecognized URL shapes fall back to the last non-empty path segment;
// total failure yields "".
func ParseProfileURL(platform store.Platform, link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	if pattern, ok := usernamePatterns[platform]; ok {
		if m := pattern.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}

	// bare username, no URL structure at all
	if !strings.ContainsAny(link, "/.") {
		return link
	}

	withScheme := link
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}
	parsed, err := url.Parse(withScheme)
	if err != nil {
		return ""
	}
	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segment := strings.TrimSpace(segments[i]); segment != "" {
			return segment
		}
	}
	return ""
}
