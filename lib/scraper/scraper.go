// Package scraper is the fetch layer shared by the site scrapers.
//
// read-only scrapers are mostly stateless, each method is independent of each other,
// the output is dependent solely on the input.
// EXCEPT for the login state, that is an implied input for each method,
// here it comes from cookies copied out of the user's browser.
//
// each page fetch generally has this structure:
// 1. wait out the politeness delay since the previous fetch.
// 2. make the request.
// 3. make assertions on response validity (status, logged out marker).
// 4. parse the body into a document the extractors can walk.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"readstats/lib/restyutil"
	"readstats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("readstats.lib.scraper")

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrTimeout      = errors.New("request timed out")
	ErrUnreachable  = errors.New("site unreachable")
	// a page did not have the layout its extractor expects
	ErrStructureMismatch = errors.New("page structure mismatch")
)

// Fetcher retrieves one page and parses it.
type Fetcher interface {
	Fetch(ctx context.Context, path string, params url.Values) (*goquery.Document, error)
}

type ClientOptions struct {
	BaseUrl string
	Cookies []*http.Cookie
	// minimum time between two requests, defaults to 8 seconds
	Delay time.Duration
	// defaults to 18 seconds
	Timeout time.Duration
	// text that only shows up on a page when the session is not logged in
	LoggedOutMarker string
	TracerName      string
	Dump            restyutil.Output
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	pacer   *restyutil.Pacer
	marker  string
}

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.Delay == 0 {
		opts.Delay = 8 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 18 * time.Second
	}
	if opts.TracerName == "" {
		opts.TracerName = "readstats.http"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(baseUrl, opts.Cookies)

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	pacer := restyutil.NewPacer(opts.Delay)
	client.OnBeforeRequest(pacer.Middleware())
	telemetry.InstrumentResty(client, opts.TracerName)
	restyutil.DumpResponses(client, opts.Dump)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		pacer:   pacer,
		marker:  opts.LoggedOutMarker,
	}, nil
}

func classify(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnreachable, path, err)
}

func (c *Client) Fetch(ctx context.Context, path string, params url.Values) (doc *goquery.Document, err error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))
	defer func() {
		telemetry.RecordPage(ctx, path, err)
	}()

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		err = classify(path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: %s returned %s", ErrAuthRequired, path, res.Status())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	body := res.Body()
	if c.marker != "" && bytes.Contains(body, []byte(c.marker)) {
		err := fmt.Errorf("%w: %s asks to log in", ErrAuthRequired, path)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err = goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}
	return doc, nil
}

// Close cancels a pending politeness delay.
func (c *Client) Close() {
	c.pacer.Stop()
}
