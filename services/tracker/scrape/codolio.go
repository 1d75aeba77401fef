package scrape

import (
	"bytes"
	"context"
	"fmt"

	"codetrack-backend/lib/htmlutil"
	"codetrack-backend/lib/textutil"
	"codetrack-backend/lib/timezone"
	"codetrack-backend/services/tracker/store"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Codolio is the lightweight same-process adapter for codolio. The
// authoritative path for this platform is the external browser-backed
// scraper; codolio renders most of its profile client-side, so this one
// only catches whatever made it into the server-rendered shell.
type Codolio struct {
	http *resty.Client
}

func NewCodolio(opts ClientOptions) *Codolio {
	return &Codolio{http: newClient("https://codolio.com", opts)}
}

func (s *Codolio) Platform() store.Platform { return store.PlatformCodolio }
func (s *Codolio) Host() string             { return "codolio.com" }

func (s *Codolio) Fetch(ctx context.Context, username string) (store.Stats, error) {
	ctx, span := tracer.Start(ctx, "codolio:Fetch")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profile/%s", username))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.StatusCode() == 404 {
		return nil, fmt.Errorf("codolio profile %q does not exist", username)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	stats := &store.CodolioStats{}
	stats.Username = username
	stats.LastUpdated = timezone.Now()

	stats.ProblemsSolved = textutil.ExtractInt(htmlutil.FindLabeled(doc, "div", "span", "Total Questions"))
	stats.TotalContests = textutil.ExtractInt(htmlutil.FindLabeled(doc, "div", "span", "Total Contests"))
	stats.TotalActiveDays = textutil.ExtractInt(htmlutil.FindLabeled(doc, "div", "span", "Total Active Days"))
	stats.Awards = textutil.ExtractInt(htmlutil.FindLabeled(doc, "div", "span", "Awards"))

	if stats.ProblemsSolved == 0 && stats.TotalContests == 0 && stats.TotalActiveDays == 0 {
		span.SetStatus(codes.Error, "no signal")
		return nil, ErrNoSignal
	}
	return stats, nil
}
