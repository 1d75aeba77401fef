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

type Codeforces struct {
	http *resty.Client
}

func NewCodeforces(opts ClientOptions) *Codeforces {
	opts.CloudflareBypass = true
	return &Codeforces{http: newClient("https://codeforces.com", opts)}
}

func (s *Codeforces) Platform() store.Platform { return store.PlatformCodeforces }
func (s *Codeforces) Host() string             { return "codeforces.com" }

func (s *Codeforces) Fetch(ctx context.Context, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "codeforces:Fetch")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profile/%s", username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	stats := &store.CodeforcesStats{}
	stats.Username = username
	stats.LastUpdated = timezone.Now()

	stats.Rank = htmlutil.CleanText(doc.Find("div.user-rank span").First())

	doc.Find("div.info ul li").Each(func(_ int, li *goquery.Selection) {
		text := htmlutil.CleanText(li)
		lower := strings.ToLower(text)
		switch {
		// "Contest rating: 1435 (max. specialist, 1456)"
		case strings.Contains(lower, "contest rating"):
			stats.Rating = textutil.ExtractInt(text)
			if idx := strings.Index(lower, "max."); idx >= 0 {
				maxPart := text[idx+len("max."):]
				if comma := strings.Index(maxPart, ","); comma >= 0 {
					stats.MaxRank = strings.Trim(maxPart[:comma], " ")
					stats.MaxRating = textutil.ExtractInt(maxPart[comma:])
				} else {
					stats.MaxRating = textutil.ExtractInt(maxPart)
				}
			}
		case strings.Contains(lower, "contribution"):
			stats.Contribution = textutil.ExtractInt(text)
		}
	})

	// "Problem solving: 412 problems" style counters in the activity frame
	doc.Find("div._UserActivityFrame_counterValue").Each(func(_ int, div *goquery.Selection) {
		text := strings.ToLower(htmlutil.CleanText(div))
		if strings.Contains(text, "problem") {
			if solved := textutil.ExtractInt(text); solved > stats.ProblemsSolved {
				stats.ProblemsSolved = solved
			}
		}
		if strings.Contains(text, "contest") {
			stats.ContestCount = textutil.ExtractInt(text)
		}
	})

	if stats.Rating == 0 && stats.ProblemsSolved == 0 && stats.Rank == "" {
		span.SetStatus(codes.Error, "no signal")
		return nil, ErrNoSignal
	}
	return stats, nil
}
