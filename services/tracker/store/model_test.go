package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAppendScrapingErrorEvictsOldest(t *testing.T) {
	record := &StudentRecord{}
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < MaxScrapingErrors+5; i++ {
		record.AppendScrapingError(PlatformLeetcode, fmt.Sprintf("error %d", i), at)
	}

	require.Len(t, record.ScrapingErrors, MaxScrapingErrors)
	require.Equal(t, "error 5", record.ScrapingErrors[0].Message)
	require.Equal(t, "error 14", record.ScrapingErrors[len(record.ScrapingErrors)-1].Message)
}

func TestTouchLastScrapedNeverMovesBackwards(t *testing.T) {
	record := &StudentRecord{}
	later := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	record.TouchLastScraped(later)
	record.TouchLastScraped(earlier)
	require.Equal(t, later, record.LastScrapedAt)
}

func TestPlatformStatsSetRejectsMismatchedVariant(t *testing.T) {
	var platforms PlatformStats

	err := platforms.Set(PlatformGithub, &LeetcodeStats{})
	require.Error(t, err)
	require.Nil(t, platforms.Github)

	err = platforms.Set(PlatformGithub, &GithubStats{
		CommonStats: CommonStats{Username: "alice"},
	})
	require.NoError(t, err)
	require.NotNil(t, platforms.Get(PlatformGithub))
	require.Equal(t, "alice", platforms.Get(PlatformGithub).Common().Username)

	require.Nil(t, platforms.Get(PlatformCodechef))
}

func TestCloneIsDeep(t *testing.T) {
	record := &StudentRecord{
		RollNo: "21CS001",
		PlatformUsernames: map[Platform]string{
			PlatformLeetcode: "alice",
		},
		ScrapingErrors: []ScrapingError{
			{Platform: PlatformGithub, Message: "boom"},
		},
	}
	record.Platforms.Leetcode = &LeetcodeStats{
		CommonStats:        CommonStats{Username: "alice", Rating: 1600},
		Badges:             []string{"50 Days"},
		SubmissionCalendar: map[string]int{"2024-03-10": 4},
		ContestHistory: []ContestEntry{
			{Code: "weekly-389", Problems: []string{"a", "b"}},
		},
	}

	clone := record.Clone()
	if diff := cmp.Diff(record, clone); diff != "" {
		t.Fatalf("clone differs from original:\n%s", diff)
	}

	clone.PlatformUsernames[PlatformLeetcode] = "mallory"
	clone.Platforms.Leetcode.Rating = 0
	clone.Platforms.Leetcode.SubmissionCalendar["2024-03-10"] = 99
	clone.Platforms.Leetcode.ContestHistory[0].Problems[0] = "z"
	clone.ScrapingErrors[0].Message = "changed"

	require.Equal(t, "alice", record.PlatformUsernames[PlatformLeetcode])
	require.Equal(t, 1600, record.Platforms.Leetcode.Rating)
	require.Equal(t, 4, record.Platforms.Leetcode.SubmissionCalendar["2024-03-10"])
	require.Equal(t, "a", record.Platforms.Leetcode.ContestHistory[0].Problems[0])
	require.Equal(t, "boom", record.ScrapingErrors[0].Message)
}

func TestParsePlatform(t *testing.T) {
	platform, err := ParsePlatform("codechef")
	require.NoError(t, err)
	require.Equal(t, PlatformCodechef, platform)

	_, err = ParsePlatform("myspace")
	require.Error(t, err)
}
