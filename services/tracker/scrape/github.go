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

type Github struct {
	http *resty.Client
}

func NewGithub(opts ClientOptions) *Github {
	return &Github{http: newClient("https://github.com", opts)}
}

func (s *Github) Platform() store.Platform { return store.PlatformGithub }
func (s *Github) Host() string             { return "github.com" }

func (s *Github) Fetch(ctx context.Context, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "github:Fetch")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s", username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("github profile %q does not exist", username)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	stats := &store.GithubStats{}
	stats.Username = username
	stats.LastUpdated = timezone.Now()

	// "1,234 contributions in the last year"
	doc.Find("h2").EachWithBreak(func(_ int, h2 *goquery.Selection) bool {
		text := htmlutil.CleanText(h2)
		if strings.Contains(strings.ToLower(text), "contribution") {
			stats.Contributions = textutil.ExtractInt(text)
			return false
		}
		return true
	})

	// repo count in the profile nav tab counter
	doc.Find("a[data-tab-item] span.Counter").EachWithBreak(func(_ int, counter *goquery.Selection) bool {
		parent := strings.ToLower(counter.Parent().Text())
		if strings.Contains(parent, "repositories") {
			stats.PublicRepos = textutil.ExtractInt(counter.Text())
			return false
		}
		return true
	})

	// "142 followers · 12 following"
	doc.Find("a[href$='tab=followers'] span").Each(func(_ int, span *goquery.Selection) {
		stats.Followers = textutil.ExtractInt(span.Text())
	})
	doc.Find("a[href$='tab=following'] span").Each(func(_ int, span *goquery.Selection) {
		stats.Following = textutil.ExtractInt(span.Text())
	})

	if stats.Contributions == 0 && stats.PublicRepos == 0 && stats.Followers == 0 {
		span.SetStatus(codes.Error, "no signal")
		return nil, ErrNoSignal
	}
	return stats, nil
}
