package scrape

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"codetrack-backend/lib/restyutil"
	"codetrack-backend/services/tracker/store"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("tracker/scrape")

// ErrNoSignal marks a scrape that completed over the wire but extracted
// nothing usable (every field zero). It is a soft failure, distinct from
// a transport error: the profile may be private, renamed, or the page
// layout may have shifted under us.
var ErrNoSignal = fmt.Errorf("profile yielded no extractable stats")

// Scraper fetches and normalizes one platform's public profile.
type Scraper interface {
	Platform() store.Platform
	// Host is the target domain, used to key the per-host rate limiter.
	Host() string
	Fetch(ctx context.Context, username string) (store.Stats, error)
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// BaseUrl overrides the platform's real origin, mainly for tests
	// that serve fixture pages from a local listener.
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	// codechef and codeforces sit behind cloudflare; the bypass
	// transport is pointless (and slower) for the rest
	CloudflareBypass bool
	InstrumentOutput restyutil.InstrumentOutput
}

func newClient(baseUrl string, opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.BaseUrl != "" {
		baseUrl = opts.BaseUrl
	}
	client.SetBaseURL(baseUrl)

	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	return client
}

// NewScrapers builds the in-process adapter for every platform, keyed by
// platform name.
func NewScrapers(opts ClientOptions) map[store.Platform]Scraper {
	return map[store.Platform]Scraper{
		store.PlatformLeetcode:   NewLeetcode(opts),
		store.PlatformCodechef:   NewCodechef(opts),
		store.PlatformCodeforces: NewCodeforces(opts),
		store.PlatformGithub:     NewGithub(opts),
		store.PlatformCodolio:    NewCodolio(opts),
	}
}
