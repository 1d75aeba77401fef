package tracker

import (
	"testing"

	"codetrack-backend/services/tracker/store"

	"github.com/stretchr/testify/require"
)

func TestParseProfileURL(t *testing.T) {
	cases := []struct {
		platform store.Platform
		link     string
		want     string
	}{
		{store.PlatformLeetcode, "https://leetcode.com/u/alice/", "alice"},
		{store.PlatformLeetcode, "https://leetcode.com/alice", "alice"},
		{store.PlatformLeetcode, "leetcode.com/u/alice", "alice"},
		{store.PlatformCodechef, "https://www.codechef.com/users/alice_cc", "alice_cc"},
		{store.PlatformCodeforces, "https://codeforces.com/profile/tourist", "tourist"},
		{store.PlatformGithub, "https://github.com/alice", "alice"},
		{store.PlatformGithub, "github.com/alice/", "alice"},
		{store.PlatformCodolio, "https://codolio.com/profile/alice", "alice"},

		// bare usernames pass through
		{store.PlatformGithub, "alice", "alice"},
		{store.PlatformLeetcode, "  alice  ", "alice"},

		// unrecognized shapes fall back to the last non-empty segment
		{store.PlatformGithub, "https://github.com/alice/dotfiles", "dotfiles"},
		{store.PlatformLeetcode, "https://leetcode.com/u/alice/submissions/", "submissions"},

		// nothing extractable
		{store.PlatformGithub, "", ""},
		{store.PlatformGithub, "https://github.com/", ""},
	}

	for _, c := range cases {
		require.Equal(t, c.want, ParseProfileURL(c.platform, c.link),
			"platform=%s link=%q", c.platform, c.link)
	}
}

func TestResolveIdentifierFallbackChain(t *testing.T) {
	record := &store.StudentRecord{
		PlatformUsernames: map[store.Platform]string{
			store.PlatformLeetcode: "stored_name",
		},
		PlatformLinks: map[store.Platform]string{
			store.PlatformLeetcode: "https://leetcode.com/u/link_name/",
			store.PlatformGithub:   "https://github.com/alice",
		},
	}
	record.Platforms.Codeforces = &store.CodeforcesStats{
		CommonStats: store.CommonStats{Username: "prior_name"},
	}

	// stored username wins over the link
	require.Equal(t, "stored_name", ResolveIdentifier(record, store.PlatformLeetcode))
	// link parsing kicks in without a stored username
	require.Equal(t, "alice", ResolveIdentifier(record, store.PlatformGithub))
	// prior stats are the last resort
	require.Equal(t, "prior_name", ResolveIdentifier(record, store.PlatformCodeforces))
	// nothing resolvable means skip
	require.Equal(t, "", ResolveIdentifier(record, store.PlatformCodolio))
}
