package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"codetrack-backend/lib/htmlutil"
	"codetrack-backend/lib/textutil"
	"codetrack-backend/lib/timezone"
	"codetrack-backend/services/tracker/store"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

type Leetcode struct {
	http *resty.Client
}

func NewLeetcode(opts ClientOptions) *Leetcode {
	return &Leetcode{http: newClient("https://leetcode.com", opts)}
}

func (s *Leetcode) Platform() store.Platform { return store.PlatformLeetcode }
func (s *Leetcode) Host() string             { return "leetcode.com" }

func (s *Leetcode) Fetch(ctx context.Context, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "leetcode:Fetch")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/u/%s/", username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("leetcode profile %q does not exist", username)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	stats := &store.LeetcodeStats{}
	stats.Username = username
	stats.LastUpdated = timezone.Now()

	// the solved split is rendered as "Easy 152/885" style rows; the
	// aggregate count sits in the ring chart next to "Solved"
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		text := htmlutil.CleanText(div)
		if !strings.HasPrefix(text, "Easy") || !strings.Contains(text, "Hard") {
			return true
		}
		for _, row := range []struct {
			label string
			out   *int
		}{
			{"Easy", &stats.EasySolved},
			{"Med.", &stats.MediumSolved},
			{"Medium", &stats.MediumSolved},
			{"Hard", &stats.HardSolved},
		} {
			idx := strings.Index(text, row.label)
			if idx < 0 {
				continue
			}
			*row.out = textutil.ExtractInt(text[idx+len(row.label):])
		}
		return false
	})
	stats.ProblemsSolved = stats.EasySolved + stats.MediumSolved + stats.HardSolved

	rating := htmlutil.FindLabeled(doc, "div", "div.text-label-1", "Contest Rating")
	stats.Rating = textutil.ExtractInt(rating)
	attended := htmlutil.FindLabeled(doc, "div", "div.text-label-1", "Attended")
	stats.ContestCount = textutil.ExtractInt(attended)
	ranking := htmlutil.FindLabeled(doc, "div", "span", "Global Ranking")
	stats.GlobalRank = textutil.ExtractInt(ranking)

	doc.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		alt := img.AttrOr("alt", "")
		if strings.Contains(strings.ToLower(img.Parent().Text()), "badge") && alt != "" {
			stats.Badges = append(stats.Badges, alt)
		}
	})

	if stats.ProblemsSolved == 0 && stats.Rating == 0 && stats.ContestCount == 0 {
		span.SetStatus(codes.Error, "no signal")
		return nil, ErrNoSignal
	}
	return stats, nil
}
