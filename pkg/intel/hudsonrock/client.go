// Package hudsonrock provides an intel.Client implementation backed by the
// Hudson Rock compromise-intelligence API.
package hudsonrock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"domainwatch/pkg/domain"
	"domainwatch/pkg/intel"
	"domainwatch/pkg/logger"
	"domainwatch/pkg/serrors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// dateLayout is the ISO date format the API expects in the URL template.
const dateLayout = "2006-01-02"

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultQueryType      = "employees"
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxAttempts    = 5
	DefaultBackoffBase    = time.Second
)

// Options configure a Client. URLTemplate and APIKey are required; everything
// else falls back to the package defaults.
type Options struct {
	// URLTemplate is the API endpoint with exactly two %s slots for the
	// ISO start and end dates. The window is computed once per client
	// (today minus one month through today), not per batch.
	URLTemplate string
	// APIKey is the collaborator-provided credential sent in the api-key
	// header.
	APIKey string
	// ContentType is the request content type. Defaults to
	// "application/json".
	ContentType string
	// QueryType is the "type" query parameter. Defaults to "employees".
	QueryType string
	// ThirdPartyDomains toggles the "third_party_domains" query
	// parameter.
	ThirdPartyDomains bool
	// RequestTimeout bounds each individual request; a timeout counts as
	// a transient failure.
	RequestTimeout time.Duration
	// MaxAttempts is the total number of attempts per batch, including
	// the first.
	MaxAttempts int
	// BackoffBase is the first retry delay; it doubles on every
	// subsequent attempt.
	BackoffBase time.Duration
	// RequestsPerSecond caps the outbound request rate across all
	// workers. Zero means unlimited.
	RequestsPerSecond float64
}

// Client queries the Hudson Rock API one batch at a time, retrying transient
// failures with exponential backoff. It is safe for concurrent use.
type Client struct {
	httpClient     *http.Client
	url            string
	apiKey         string
	contentType    string
	requestTimeout time.Duration
	maxAttempts    int
	backoffBase    time.Duration
	limiter        *rate.Limiter
	now            func() time.Time
}

// BuildURL expands the URL template with the date window ending at ref and
// appends the query parameters for the requested categories. It fails with a
// config error when the template does not carry exactly two date slots or
// does not parse as a URL.
func BuildURL(opts Options, ref time.Time) (string, error) {
	if strings.Count(opts.URLTemplate, "%s") != 2 {
		return "", serrors.With(serrors.ErrConfig,
			"api url template must contain exactly two date slots: %q", opts.URLTemplate)
	}

	start := ref.AddDate(0, -1, 0).Format(dateLayout)
	end := ref.Format(dateLayout)

	u, err := url.Parse(fmt.Sprintf(opts.URLTemplate, start, end))
	if err != nil {
		return "", serrors.Wrap(serrors.ErrConfig, err, "invalid api url template")
	}

	queryType := opts.QueryType
	if queryType == "" {
		queryType = DefaultQueryType
	}

	q := u.Query()
	q.Set("type", queryType)
	if opts.ThirdPartyDomains {
		q.Set("third_party_domains", "true")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// New constructs a Client using the provided http.Client and options. The
// date window is resolved here, once per run.
func New(httpClient *http.Client, opts Options) (*Client, error) {
	now := time.Now

	u, err := BuildURL(opts, now())
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:     httpClient,
		url:            u,
		apiKey:         opts.APIKey,
		contentType:    opts.ContentType,
		requestTimeout: opts.RequestTimeout,
		maxAttempts:    opts.MaxAttempts,
		backoffBase:    opts.BackoffBase,
		now:            now,
	}
	if c.contentType == "" {
		c.contentType = "application/json"
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = DefaultRequestTimeout
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return c, nil
}

// CheckBatch queries the API for the given batch. Transient failures are
// retried up to the attempt budget with exponential backoff; the backoff
// sleep wakes immediately on cancellation. Fatal failures abandon the batch
// on the first occurrence.
func (c *Client) CheckBatch(ctx context.Context, domains []domain.Name) (intel.Result, error) {
	var lastErr error
	delay := c.backoffBase

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return intel.Result{Attempts: attempt - 1}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		res, err := c.checkOnce(ctx, domains)
		if err == nil {
			res.Attempts = attempt

			return res, nil
		}
		// A cancelled run must not burn the remaining retry budget.
		if ctx.Err() != nil {
			return intel.Result{Attempts: attempt}, ctx.Err()
		}
		if !errors.Is(err, serrors.ErrTransient) {
			return intel.Result{Attempts: attempt}, err
		}

		lastErr = err
		logger.Warn(ctx, "batch attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts),
			zap.Error(err))
	}

	return intel.Result{Attempts: c.maxAttempts},
		serrors.Wrap(serrors.ErrTransient, lastErr, "all %d attempts failed", c.maxAttempts)
}

// apiRecord is the subset of an API response item the client inspects. A
// queried domain is matched when it appears under either category.
type apiRecord struct {
	EmployeeAt []string `json:"employeeAt"`
	ClientAt   []string `json:"clientAt"`
}

// checkOnce performs a single request/parse cycle for the batch.
func (c *Client) checkOnce(ctx context.Context, domains []domain.Name) (intel.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return intel.Result{}, ctx.Err()
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	type checkReq struct {
		Domains []domain.Name `json:"domains"`
	}
	bodyBytes, err := json.Marshal(checkReq{Domains: domains})
	if err != nil {
		return intel.Result{}, serrors.Wrap(serrors.ErrFatal, err, "could not marshal request")
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return intel.Result{}, serrors.Wrap(serrors.ErrFatal, err, "could not create request")
	}
	req.Header.Set("Content-Type", c.contentType)
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Per-request timeouts and network failures are retryable;
		// a cancelled parent context is surfaced by the caller.
		return intel.Result{}, serrors.Wrap(serrors.ErrTransient, err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return intel.Result{}, serrors.Wrap(serrors.ErrTransient, err, "could not read response body")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return intel.Result{}, serrors.With(serrors.ErrRateLimited,
			"rate limited: %s", strings.TrimSpace(string(b)))
	case resp.StatusCode >= 500:
		return intel.Result{}, serrors.With(serrors.ErrTransient,
			"server error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return intel.Result{}, serrors.With(serrors.ErrFatal,
			"request rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return c.parseResponse(b, domains)
}

// parseResponse extracts matches from the response payload. The API returns
// a list of records; each record lists the domains it associates under the
// two categories. Only domains from the queried batch count as matches, and
// the raw record is retained for every match extracted from it.
func (c *Client) parseResponse(b []byte, domains []domain.Name) (intel.Result, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return intel.Result{}, serrors.Wrap(serrors.ErrFatal, err, "unexpected response shape")
	}

	queried := make(map[domain.Name]struct{}, len(domains))
	for _, d := range domains {
		queried[d] = struct{}{}
	}

	found := make(map[domain.Name]*domain.Match)
	observedAt := c.now()

	record := func(raw json.RawMessage, names []string, cat domain.Category) {
		for _, n := range names {
			d := domain.Name(n)
			if _, ok := queried[d]; !ok {
				continue
			}

			m, ok := found[d]
			if !ok {
				m = &domain.Match{Domain: d, Payload: raw, ObservedAt: observedAt}
				found[d] = m
			}
			if !hasCategory(m.Categories, cat) {
				m.Categories = append(m.Categories, cat)
			}
		}
	}

	for _, raw := range items {
		var rec apiRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return intel.Result{}, serrors.Wrap(serrors.ErrFatal, err, "unexpected record shape")
		}

		record(raw, rec.EmployeeAt, domain.CategoryEmployee)
		record(raw, rec.ClientAt, domain.CategoryClient)
	}

	// Emit matches in batch order so a batch's result is deterministic.
	var matches []domain.Match
	for _, d := range domains {
		if m, ok := found[d]; ok {
			matches = append(matches, *m)
		}
	}

	return intel.Result{Matches: matches}, nil
}

func hasCategory(cats []domain.Category, c domain.Category) bool {
	for _, have := range cats {
		if have == c {
			return true
		}
	}

	return false
}

// Ensure Client conforms to the intel.Client interface at compile time.
var _ intel.Client = (*Client)(nil)
