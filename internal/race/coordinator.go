// Package race sends the same search to every mirror at once and keeps the first
// answer that lists anything.
package race

import (
	"context"
	"fmt"
	"time"

	"bookmirror/internal/components/assert"
	"bookmirror/internal/components/telemetry"
	"bookmirror/internal/extract"
	"bookmirror/internal/mirrors"
	"bookmirror/lib/restyutil"
	libtelemetry "bookmirror/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	report_coordinator_search  = "coordinator.search"
	report_coordinator_attempt = "coordinator.attempt"
	report_coordinator_feed    = "coordinator.feed"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

const tracerName = "bookmirror/race"

var tracer = otel.Tracer(tracerName)
var meter = otel.Meter(tracerName)
var winCounter, _ = meter.Int64Counter("race.wins", metric.WithDescription("races won by a mirror"))
var failureCounter, _ = meter.Int64Counter("race.failures", metric.WithDescription("mirror attempts that failed"))

// Options tune a single search.
type Options struct {
	// Limit is the page size asked of each mirror, and the most records an outcome holds.
	Limit int
	// Timeout bounds each request on its own, not the race as a whole.
	Timeout time.Duration
	// RaceAllMirrors false sends the search to the first mirror only.
	RaceAllMirrors bool
}

// Outcome is what a search returns. Records come from a single mirror, Failures lists
// the mirrors that failed before it answered (or all of them, when none did).
type Outcome struct {
	Records  []extract.SearchRecord `json:"records"`
	Failures []Failure              `json:"failures"`
	// Mirror is the name of the mirror the records came from.
	Mirror string `json:"mirror,omitempty"`
	// Query is the query variant that was searched last.
	Query string `json:"query"`
}

type Config struct {
	UserAgent string
	// RequestsPerSecond limits requests across every mirror, 0 disables the limit.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// FeedTimeout bounds feed requests, DefaultTimeout is used when zero.
	FeedTimeout time.Duration
	// Dump receives every exchange when set.
	Dump restyutil.InstrumentOutput
}

type Coordinator struct {
	client      *resty.Client
	extractor   extract.Extractor
	feedTimeout time.Duration
	tel         telemetry.API
}

func NewCoordinator(cfg Config, tel telemetry.API) *Coordinator {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("race", tel)

	client := resty.New()
	if cfg.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	// per request timeouts come from the context, this only catches a misbehaving caller
	client.SetTimeout(time.Minute)

	if cfg.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	libtelemetry.InstrumentResty(client, tracerName)
	telemetry.InstrumentResty(client, tel)
	restyutil.InstrumentClient(client, cfg.Dump)

	feedTimeout := cfg.FeedTimeout
	if feedTimeout <= 0 {
		feedTimeout = DefaultTimeout
	}

	return &Coordinator{
		client:      client,
		extractor:   extract.NewExtractor(tel),
		feedTimeout: feedTimeout,
		tel:         tel,
	}
}

// Search tries each query variant in order and returns the outcome of the first one
// any mirror has records for. When none do, the outcome of the last variant is
// returned. Mirror failures are part of the outcome, never an error.
func (c *Coordinator) Search(ctx context.Context, variants []string, reg mirrors.Registry, opts Options) Outcome {
	ctx, span := tracer.Start(ctx, "search", trace.WithAttributes(
		attribute.StringSlice("variants", variants),
		attribute.Int("mirrors", reg.Len()),
		attribute.Bool("race_all_mirrors", opts.RaceAllMirrors),
	))
	defer span.End()

	outcome := Outcome{Records: []extract.SearchRecord{}}
	for _, query := range variants {
		outcome = c.race(ctx, query, reg, opts)
		if len(outcome.Records) > 0 {
			span.SetAttributes(
				attribute.String("winner", outcome.Mirror),
				attribute.String("query", query),
			)
			return outcome
		}
		if ctx.Err() != nil {
			break
		}
	}

	c.tel.ReportWarning(
		report_coordinator_search,
		ErrNoResults,
		"variants", variants,
		"failures", len(outcome.Failures),
	)
	span.SetStatus(codes.Error, "no results")
	return outcome
}

type attempt struct {
	mirror  string
	records []extract.SearchRecord
	err     error
}

func (c *Coordinator) race(ctx context.Context, query string, reg mirrors.Registry, opts Options) Outcome {
	descriptors := reg.Descriptors()
	if !opts.RaceAllMirrors {
		first, ok := reg.First()
		descriptors = nil
		if ok {
			descriptors = []mirrors.Descriptor{first}
		}
	}

	outcome := Outcome{
		Records:  []extract.SearchRecord{},
		Failures: []Failure{},
		Query:    query,
	}
	if len(descriptors) == 0 {
		return outcome
	}

	raceCtx, cancel := context.WithCancel(ctx)
	// cancels the stragglers once a winner is in
	defer cancel()

	// buffered so that abandoned attempts never block on send
	results := make(chan attempt, len(descriptors))
	for _, d := range descriptors {
		go func(d mirrors.Descriptor) {
			results <- c.attempt(raceCtx, d, query, opts)
		}(d)
	}

	for range descriptors {
		res := <-results
		if res.err != nil {
			outcome.Failures = append(outcome.Failures, Failure{Mirror: res.mirror, Error: res.err})
			continue
		}

		outcome.Records = res.records
		outcome.Mirror = res.mirror
		winCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mirror", res.mirror)))
		c.tel.ReportDebug("race won", "mirror", res.mirror, "query", query, "records", len(res.records))
		return outcome
	}

	return outcome
}

func (c *Coordinator) attempt(ctx context.Context, d mirrors.Descriptor, query string, opts Options) (result attempt) {
	ctx, span := tracer.Start(ctx, "attempt", trace.WithAttributes(
		attribute.String("mirror", d.Name()),
		attribute.String("query", query),
	))
	defer span.End()

	result = attempt{mirror: d.Name()}
	defer func() {
		if result.err == nil {
			span.SetAttributes(attribute.Int("records", len(result.records)))
			return
		}
		span.RecordError(result.err)
		span.SetStatus(codes.Error, result.err.Error())
		failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mirror", d.Name())))
	}()

	limit := opts.Limit
	if limit <= 0 {
		limit = mirrors.DefaultLimit
	}
	params, err := mirrors.BuildParams(d.Dialect(), query, limit)
	if err != nil {
		result.err = fmt.Errorf("build params: %w", err)
		c.tel.ReportBroken(report_coordinator_attempt, result.err, d.Name())
		return result
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := c.client.R().
		SetContext(reqCtx).
		SetQueryParamsFromValues(params).
		Get(d.Endpoint())
	if err != nil {
		result.err = fmt.Errorf("fetch: %w", err)
		if ctx.Err() == nil {
			c.tel.ReportWarning(report_coordinator_attempt, result.err, d.Name())
		}
		return result
	}
	if !res.IsSuccess() {
		result.err = &HTTPStatusError{
			URL:        d.Endpoint(),
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
		c.tel.ReportWarning(report_coordinator_attempt, result.err, d.Name())
		return result
	}

	records := c.extractor.Records(res.Body(), d.Endpoint())
	if len(records) == 0 {
		result.err = ErrNoResults
		c.tel.ReportDebug("no results", "mirror", d.Name(), "query", query)
		return result
	}
	if len(records) > limit {
		records = records[:limit]
	}

	result.records = records
	return result
}

// Feed fetches and extracts the syndication feed of a mirror.
func (c *Coordinator) Feed(ctx context.Context, d mirrors.Descriptor) ([]extract.FeedRecord, error) {
	ctx, span := tracer.Start(ctx, "feed", trace.WithAttributes(
		attribute.String("mirror", d.Name()),
	))
	defer span.End()

	feedURL := d.FeedURL()
	if feedURL == "" {
		err := fmt.Errorf("mirror %q has no feed url", d.Name())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.feedTimeout)
	defer cancel()

	res, err := c.client.R().
		SetContext(reqCtx).
		Get(feedURL)
	if err != nil {
		err = fmt.Errorf("fetch feed: %w", err)
		c.tel.ReportWarning(report_coordinator_feed, err, d.Name())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !res.IsSuccess() {
		err := &HTTPStatusError{
			URL:        feedURL,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
		c.tel.ReportWarning(report_coordinator_feed, err, d.Name())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := c.extractor.FeedRecords(res.Body())
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}
