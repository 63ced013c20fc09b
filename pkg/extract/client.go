// Package extract is a client for an asynchronous scrape-and-extract job
// service. A job moves submitted → processing → completed | failed | cancelled;
// Submit creates it and AwaitCompletion polls until a terminal state.
//
// Polling is cooperative and single-threaded: the caller's goroutine sleeps
// between polls. A failed poll is returned immediately and never retried.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/gpucatalog/pkg/http"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
)

// PromptSpec describes what to extract from each page.
type PromptSpec struct {
	Prompt        string
	Schema        map[string]any
	ScrapeOptions map[string]any
}

// Client talks to the extraction job service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *gohttp.Client
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through c.
func WithHTTPClient(c *gohttp.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithClock replaces the wall clock and the wait between polls.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(cl *Client) {
		if now != nil {
			cl.now = now
		}
		if sleep != nil {
			cl.sleep = sleep
		}
	}
}

// WithLogger sets the logger used for job progress.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// New returns a client for the service at baseURL (e.g. https://api.firecrawl.dev/v1).
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
		sleep:   sleepCtx,
		log:     logger.L,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitRequest struct {
	URLs          []string       `json:"urls"`
	Prompt        string         `json:"prompt"`
	Schema        map[string]any `json:"schema,omitempty"`
	ScrapeOptions map[string]any `json:"scrapeOptions,omitempty"`
}

type submitResponse struct {
	Success *bool  `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Success *bool           `json:"success"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Submit creates one extraction job for urls and returns its id.
func (c *Client) Submit(ctx context.Context, urls []string, spec PromptSpec) (string, error) {
	if len(urls) == 0 {
		return "", &SubmissionError{Message: "no URLs to extract"}
	}

	resp, err := http.Post(c.baseURL + "/extract").
		Using(c.httpClient).
		Bearer(c.apiKey).
		Body(submitRequest{
			URLs:          urls,
			Prompt:        spec.Prompt,
			Schema:        spec.Schema,
			ScrapeOptions: spec.ScrapeOptions,
		}).
		WithContext(ctx).
		Send()
	if err != nil {
		return "", &SubmissionError{Err: err}
	}

	if !resp.OK() {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Message: remoteMessage(resp.Raw)}
	}

	var out submitResponse
	if err := resp.JSON(&out); err != nil {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Err: err}
	}
	if out.Success == nil || !*out.Success {
		msg := out.Error
		if msg == "" {
			msg = "service did not confirm the job"
		}
		return "", &SubmissionError{StatusCode: resp.StatusCode, Message: msg}
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", &SubmissionError{StatusCode: resp.StatusCode, Err: ErrMissingJobID}
	}

	c.log.Info("extract: job submitted", "job_id", out.ID, "urls", len(urls))
	return out.ID, nil
}

// AwaitCompletion polls job status every pollInterval until the job reaches
// a terminal state or timeout elapses. The first poll happens immediately.
func (c *Client) AwaitCompletion(ctx context.Context, jobID string, pollInterval, timeout time.Duration) (*Result, error) {
	start := c.now()

	for polls := 1; ; polls++ {
		st, err := c.status(ctx, jobID)
		if err != nil {
			metrics.ObserveExtractJob("poll_error", start)
			return nil, err
		}

		switch strings.ToLower(st.Status) {
		case StateCompleted:
			records, err := decodeRecords(st.Data)
			if err != nil {
				metrics.ObserveExtractJob("poll_error", start)
				return nil, &StatusError{JobID: jobID, Err: err}
			}
			if len(records) == 0 {
				metrics.ObserveExtractJob("empty", start)
				return nil, &EmptyResultError{JobID: jobID}
			}
			metrics.ObserveExtractJob(StateCompleted, start)
			c.log.Info("extract: job completed", "job_id", jobID, "records", len(records), "polls", polls)
			return &Result{JobID: jobID, Records: records, Raw: st.Data}, nil
		case StateFailed:
			metrics.ObserveExtractJob(StateFailed, start)
			return nil, &JobFailedError{JobID: jobID, Reason: st.Error}
		case StateCancelled:
			metrics.ObserveExtractJob(StateCancelled, start)
			return nil, &JobCancelledError{JobID: jobID}
		}

		if c.now().Sub(start) >= timeout {
			metrics.ObserveExtractJob("timeout", start)
			return nil, &JobTimeoutError{JobID: jobID, Timeout: timeout}
		}

		c.log.Debug("extract: job pending", "job_id", jobID, "status", st.Status, "polls", polls)
		if err := c.sleep(ctx, pollInterval); err != nil {
			return nil, fmt.Errorf("extract: await job %s: %w", jobID, err)
		}
	}
}

// ExtractOne runs a single-URL job to completion and returns its record.
func (c *Client) ExtractOne(ctx context.Context, pageURL string, spec PromptSpec, pollInterval, timeout time.Duration) (Record, error) {
	jobID, err := c.Submit(ctx, []string{pageURL}, spec)
	if err != nil {
		return Record{}, err
	}
	res, err := c.AwaitCompletion(ctx, jobID, pollInterval, timeout)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range res.Records {
		if rec.SourceURL() == pageURL {
			return rec, nil
		}
	}
	return res.Records[0], nil
}

func (c *Client) status(ctx context.Context, jobID string) (*statusResponse, error) {
	resp, err := http.Get(c.baseURL + "/extract/" + url.PathEscape(jobID)).
		Using(c.httpClient).
		Bearer(c.apiKey).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, &StatusError{JobID: jobID, Err: err}
	}
	if !resp.OK() {
		return nil, &StatusError{JobID: jobID, StatusCode: resp.StatusCode, Err: errors.New(remoteMessage(resp.Raw))}
	}

	var st statusResponse
	if err := resp.JSON(&st); err != nil {
		return nil, &StatusError{JobID: jobID, StatusCode: resp.StatusCode, Err: err}
	}
	if st.Success != nil && !*st.Success && st.Status == "" {
		return nil, &StatusError{JobID: jobID, StatusCode: resp.StatusCode, Err: errors.New(nonEmpty(st.Error, "service reported failure"))}
	}
	return &st, nil
}

// remoteMessage pulls a human-readable message out of an error body.
func remoteMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := nonEmpty(body.Error, body.Message); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(preview(raw))
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
