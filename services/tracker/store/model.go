package store

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Platform string

const (
	PlatformLeetcode   Platform = "leetcode"
	PlatformCodechef   Platform = "codechef"
	PlatformCodeforces Platform = "codeforces"
	PlatformGithub     Platform = "github"
	PlatformCodolio    Platform = "codolio"
)

// AllPlatforms is also the order platforms are attempted in during a
// full refresh.
var AllPlatforms = []Platform{
	PlatformLeetcode,
	PlatformCodechef,
	PlatformCodeforces,
	PlatformGithub,
	PlatformCodolio,
}

func ParsePlatform(s string) (Platform, error) {
	for _, p := range AllPlatforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// CommonStats is the subset every platform variant shares.
type CommonStats struct {
	Username       string    `bson:"username" json:"username"`
	Rating         int       `bson:"rating" json:"rating"`
	MaxRating      int       `bson:"maxRating" json:"maxRating"`
	ProblemsSolved int       `bson:"problemsSolved" json:"problemsSolved"`
	LastUpdated    time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

type ContestEntry struct {
	Code         string    `bson:"code" json:"code"`
	Name         string    `bson:"name" json:"name"`
	Date         time.Time `bson:"date" json:"date"`
	Rating       int       `bson:"rating" json:"rating"`
	Rank         int       `bson:"rank" json:"rank"`
	RatingChange int       `bson:"ratingChange" json:"ratingChange"`
	Problems     []string  `bson:"problems,omitempty" json:"problems,omitempty"`
	ProblemCount int       `bson:"problemCount" json:"problemCount"`
	Attended     bool      `bson:"attended" json:"attended"`
}

type LeetcodeStats struct {
	CommonStats        `bson:",inline"`
	EasySolved         int            `bson:"easySolved" json:"easySolved"`
	MediumSolved       int            `bson:"mediumSolved" json:"mediumSolved"`
	HardSolved         int            `bson:"hardSolved" json:"hardSolved"`
	ContestCount       int            `bson:"contestCount" json:"contestCount"`
	GlobalRank         int            `bson:"globalRank" json:"globalRank"`
	Badges             []string       `bson:"badges,omitempty" json:"badges,omitempty"`
	SubmissionCalendar map[string]int `bson:"submissionCalendar,omitempty" json:"submissionCalendar,omitempty"`
	ContestHistory     []ContestEntry `bson:"contestHistory,omitempty" json:"contestHistory,omitempty"`
}

type CodechefStats struct {
	CommonStats    `bson:",inline"`
	Stars          int            `bson:"stars" json:"stars"`
	GlobalRank     int            `bson:"globalRank" json:"globalRank"`
	CountryRank    int            `bson:"countryRank" json:"countryRank"`
	ContestCount   int            `bson:"contestCount" json:"contestCount"`
	Heatmap        map[string]int `bson:"heatmap,omitempty" json:"heatmap,omitempty"`
	ContestHistory []ContestEntry `bson:"contestHistory,omitempty" json:"contestHistory,omitempty"`
}

type CodeforcesStats struct {
	CommonStats    `bson:",inline"`
	Rank           string         `bson:"rank" json:"rank"`
	MaxRank        string         `bson:"maxRank" json:"maxRank"`
	Contribution   int            `bson:"contribution" json:"contribution"`
	ContestCount   int            `bson:"contestCount" json:"contestCount"`
	ContestHistory []ContestEntry `bson:"contestHistory,omitempty" json:"contestHistory,omitempty"`
}

type GithubStats struct {
	CommonStats   `bson:",inline"`
	PublicRepos   int `bson:"publicRepos" json:"publicRepos"`
	Followers     int `bson:"followers" json:"followers"`
	Following     int `bson:"following" json:"following"`
	Contributions int `bson:"contributions" json:"contributions"`
}

type CodolioStats struct {
	CommonStats    `bson:",inline"`
	TotalContests  int `bson:"totalContests" json:"totalContests"`
	TotalActiveDays int `bson:"totalActiveDays" json:"totalActiveDays"`
	Awards         int `bson:"awards" json:"awards"`
}

// Stats is implemented by every per-platform variant.
type Stats interface {
	Common() *CommonStats
}

func (s *LeetcodeStats) Common() *CommonStats   { return &s.CommonStats }
func (s *CodechefStats) Common() *CommonStats   { return &s.CommonStats }
func (s *CodeforcesStats) Common() *CommonStats { return &s.CommonStats }
func (s *GithubStats) Common() *CommonStats     { return &s.CommonStats }
func (s *CodolioStats) Common() *CommonStats    { return &s.CommonStats }

// PlatformStats holds one typed sub-document per platform instead of a
// single union bag, so leetcode fields can't bleed into a github entry.
type PlatformStats struct {
	Leetcode   *LeetcodeStats   `bson:"leetcode,omitempty" json:"leetcode,omitempty"`
	Codechef   *CodechefStats   `bson:"codechef,omitempty" json:"codechef,omitempty"`
	Codeforces *CodeforcesStats `bson:"codeforces,omitempty" json:"codeforces,omitempty"`
	Github     *GithubStats     `bson:"github,omitempty" json:"github,omitempty"`
	Codolio    *CodolioStats    `bson:"codolio,omitempty" json:"codolio,omitempty"`
}

// Get returns the stats stored for a platform, or nil when the platform
// has never been scraped successfully.
func (p *PlatformStats) Get(platform Platform) Stats {
	switch platform {
	case PlatformLeetcode:
		if p.Leetcode != nil {
			return p.Leetcode
		}
	case PlatformCodechef:
		if p.Codechef != nil {
			return p.Codechef
		}
	case PlatformCodeforces:
		if p.Codeforces != nil {
			return p.Codeforces
		}
	case PlatformGithub:
		if p.Github != nil {
			return p.Github
		}
	case PlatformCodolio:
		if p.Codolio != nil {
			return p.Codolio
		}
	}
	return nil
}

// Set replaces a platform's sub-document wholesale. The stats value must
// be the variant matching the platform.
func (p *PlatformStats) Set(platform Platform, stats Stats) error {
	switch s := stats.(type) {
	case *LeetcodeStats:
		if platform != PlatformLeetcode {
			break
		}
		p.Leetcode = s
		return nil
	case *CodechefStats:
		if platform != PlatformCodechef {
			break
		}
		p.Codechef = s
		return nil
	case *CodeforcesStats:
		if platform != PlatformCodeforces {
			break
		}
		p.Codeforces = s
		return nil
	case *GithubStats:
		if platform != PlatformGithub {
			break
		}
		p.Github = s
		return nil
	case *CodolioStats:
		if platform != PlatformCodolio {
			break
		}
		p.Codolio = s
		return nil
	}
	return fmt.Errorf("stats type %T does not belong to platform %q", stats, platform)
}

type ScrapingError struct {
	Platform Platform  `bson:"platform" json:"platform"`
	Message  string    `bson:"message" json:"message"`
	At       time.Time `bson:"at" json:"at"`
}

// MaxScrapingErrors bounds the diagnostic error history kept on a record.
const MaxScrapingErrors = 10

type StudentRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RollNo       string             `bson:"rollNo" json:"rollNo"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	Batch        string             `bson:"batch" json:"batch"`
	PasswordHash string             `bson:"passwordHash" json:"-"`

	Platforms         PlatformStats       `bson:"platforms" json:"platforms"`
	PlatformLinks     map[Platform]string `bson:"platformLinks,omitempty" json:"platformLinks,omitempty"`
	PlatformUsernames map[Platform]string `bson:"platformUsernames,omitempty" json:"platformUsernames,omitempty"`

	LastScrapedAt  time.Time       `bson:"lastScrapedAt" json:"lastScrapedAt"`
	ScrapingErrors []ScrapingError `bson:"scrapingErrors,omitempty" json:"scrapingErrors,omitempty"`

	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AppendScrapingError records a per-platform failure, evicting the
// oldest entries beyond MaxScrapingErrors.
func (r *StudentRecord) AppendScrapingError(platform Platform, message string, at time.Time) {
	r.ScrapingErrors = append(r.ScrapingErrors, ScrapingError{
		Platform: platform,
		Message:  message,
		At:       at,
	})
	if overflow := len(r.ScrapingErrors) - MaxScrapingErrors; overflow > 0 {
		r.ScrapingErrors = r.ScrapingErrors[overflow:]
	}
}

// TouchLastScraped advances the last-scraped timestamp. It never moves
// backwards, even if a slow concurrent refresh finishes late.
func (r *StudentRecord) TouchLastScraped(now time.Time) {
	if now.After(r.LastScrapedAt) {
		r.LastScrapedAt = now
	}
}

// Clone deep-copies the record so in-memory stores and the reconciler
// can mutate freely without aliasing surprises.
func (r *StudentRecord) Clone() *StudentRecord {
	out := *r

	out.PlatformLinks = cloneMap(r.PlatformLinks)
	out.PlatformUsernames = cloneMap(r.PlatformUsernames)

	if r.ScrapingErrors != nil {
		out.ScrapingErrors = append([]ScrapingError(nil), r.ScrapingErrors...)
	}

	if r.Platforms.Leetcode != nil {
		s := *r.Platforms.Leetcode
		s.Badges = append([]string(nil), s.Badges...)
		s.SubmissionCalendar = cloneMap(s.SubmissionCalendar)
		s.ContestHistory = cloneContests(s.ContestHistory)
		out.Platforms.Leetcode = &s
	}
	if r.Platforms.Codechef != nil {
		s := *r.Platforms.Codechef
		s.Heatmap = cloneMap(s.Heatmap)
		s.ContestHistory = cloneContests(s.ContestHistory)
		out.Platforms.Codechef = &s
	}
	if r.Platforms.Codeforces != nil {
		s := *r.Platforms.Codeforces
		s.ContestHistory = cloneContests(s.ContestHistory)
		out.Platforms.Codeforces = &s
	}
	if r.Platforms.Github != nil {
		s := *r.Platforms.Github
		out.Platforms.Github = &s
	}
	if r.Platforms.Codolio != nil {
		s := *r.Platforms.Codolio
		out.Platforms.Codolio = &s
	}

	return &out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneContests(entries []ContestEntry) []ContestEntry {
	if entries == nil {
		return nil
	}
	out := make([]ContestEntry, len(entries))
	for i, e := range entries {
		e.Problems = append([]string(nil), e.Problems...)
		out[i] = e
	}
	return out
}
