package curveseries

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"CurveDash/internal/domain/models"
	domrepo "CurveDash/internal/domain/repository"
	applogger "CurveDash/pkg/logger"
)

// SourceName identifies this feed in packets and the source registry.
const SourceName = "curveseries"

// Client talks to the local CurveSeries bridge over HTTP. The bridge proxies
// the desktop terminal, so it is frequently just not running; that state is
// reported through CheckReachable, not as an error.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	probeFormula string
	logger       *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// NewClient creates a bridge client.
func NewClient(baseURL string, logger *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(5), 5),
		probeFormula: "",
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRPS caps requests per second against the bridge.
func WithMaxRPS(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
	}
}

// WithProbeFormula sets the formula used by reachability probes.
func WithProbeFormula(formula string) Option {
	return func(c *Client) {
		c.probeFormula = formula
	}
}

func (c *Client) Name() string { return SourceName }

// seriesResponse is the bridge wire format. Cells arrive untyped; numbers are
// decoded via json.Number to avoid precision loss on large values.
type seriesResponse struct {
	Rows [][]json.RawMessage `json:"rows"`
}

// FetchRows fetches raw series rows for formula over the inclusive date
// range. Dates on the wire use the DD-Mon-YYYY form the bridge expects.
func (c *Client) FetchRows(ctx context.Context, formula string, start, end time.Time) ([]models.RawRow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("formula", formula)
	q.Set("start", FormatDate(start))
	q.Set("end", FormatDate(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/series?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bridge returned %d: %s", resp.StatusCode, string(body))
	}

	var sr seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode series response: %w", err)
	}

	rows := make([]models.RawRow, 0, len(sr.Rows))
	for _, wire := range sr.Rows {
		row := make(models.RawRow, 0, len(wire))
		for _, cell := range wire {
			row = append(row, decodeCell(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CheckReachable probes the bridge. When a probe formula is configured a
// one-day series request is issued, otherwise the health endpoint is hit.
// Unreachable means false, never an error.
func (c *Client) CheckReachable(ctx context.Context) bool {
	if c.probeFormula != "" {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		_, err := c.FetchRows(ctx, c.probeFormula, today.AddDate(0, 0, -1), today)
		if err != nil {
			c.logger.Debug("bridge probe failed", applogger.Error(err))
			return false
		}
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func decodeCell(raw json.RawMessage) models.Cell {
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err == nil {
		if f, err := num.Float64(); err == nil {
			return models.NumberCell(f)
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return models.TextCell(s)
	}

	// Bool, null, nested value: keep the literal text so the audit payload
	// still carries it.
	return models.TextCell(string(raw))
}

var _ domrepo.QuoteSource = (*Client)(nil)
