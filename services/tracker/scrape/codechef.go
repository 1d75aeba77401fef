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

type Codechef struct {
	http *resty.Client
}

func NewCodechef(opts ClientOptions) *Codechef {
	opts.CloudflareBypass = true
	return &Codechef{http: newClient("https://www.codechef.com", opts)}
}

func (s *Codechef) Platform() store.Platform { return store.PlatformCodechef }
func (s *Codechef) Host() string             { return "www.codechef.com" }

func (s *Codechef) Fetch(ctx context.Context, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "codechef:Fetch")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/users/%s", username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	// codechef redirects unknown users to the teams page instead of
	// 404ing; the raw response carries the post-redirect url
	if res.RawResponse != nil && res.RawResponse.Request != nil &&
		strings.Contains(res.RawResponse.Request.URL.Path, "/teams/") {
		return nil, fmt.Errorf("codechef profile %q does not exist", username)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	stats := &store.CodechefStats{}
	stats.Username = username
	stats.LastUpdated = timezone.Now()

	stats.Rating = textutil.ExtractInt(htmlutil.CleanText(doc.Find("div.rating-number").First()))
	// "(Highest Rating 1623)"
	stats.MaxRating = textutil.ExtractInt(htmlutil.CleanText(doc.Find("div.rating-header small").First()))
	stats.Stars = strings.Count(doc.Find("span.rating").First().Text(), "★")

	doc.Find("div.rating-ranks a").Each(func(_ int, a *goquery.Selection) {
		text := strings.ToLower(a.Parent().Text())
		rank := textutil.ExtractInt(a.Text())
		if strings.Contains(text, "global") {
			stats.GlobalRank = rank
		}
		if strings.Contains(text, "country") {
			stats.CountryRank = rank
		}
	})

	// "Total Problems Solved: 123" lives in the problems-solved section
	doc.Find("section.rating-data-section h3").Each(func(_ int, h3 *goquery.Selection) {
		text := h3.Text()
		if strings.Contains(strings.ToLower(text), "total problems solved") {
			stats.ProblemsSolved = textutil.ExtractInt(text)
		}
		if strings.Contains(strings.ToLower(text), "contests") {
			stats.ContestCount = textutil.ExtractInt(text)
		}
	})

	if stats.Rating == 0 && stats.ProblemsSolved == 0 {
		span.SetStatus(codes.Error, "no signal")
		return nil, ErrNoSignal
	}
	return stats, nil
}
