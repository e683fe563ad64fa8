// Package trafikk is a client for the Norwegian Public Roads Administration
// traffic data API: a single HTTPS endpoint accepting {"query": "..."} over
// POST and returning {"data": ..., "errors": [...]}.
package trafikk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client issues queries against the traffic data endpoint. It is stateless
// and safe for reuse across stages.
type Client struct {
	baseURL       string
	clientContact string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a traffic data client. clientContact is sent as the
// X-Client header, which the API uses to identify callers.
func NewClient(baseURL, clientContact string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		clientContact: clientContact,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// HTTPError is a non-2xx response from the traffic data endpoint.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("trafikk API error: status %d: %s", e.Status, e.Body)
}

// QueryError carries the errors array of a 200 response. A successful HTTP
// exchange can still fail per-query, so callers must handle this distinctly.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("trafikk query errors: %s", strings.Join(e.Messages, "; "))
}

// PointsResult holds the discovered registration points together with the
// verbatim response body, which the points stage persists as an audit copy.
type PointsResult struct {
	Raw   []byte
	Nodes []PointNode
}

// RegistrationPoints fetches all registration points matching the fixed
// Vestland filter. Any failure, including query-level errors, is returned
// to the caller; point discovery has no partial-success mode.
func (c *Client) RegistrationPoints(ctx context.Context) (PointsResult, error) {
	body, err := c.do(ctx, registrationPointsQuery)
	if err != nil {
		return PointsResult{}, err
	}

	var env pointsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PointsResult{}, fmt.Errorf("decode registration points: %w", err)
	}
	if len(env.Errors) > 0 {
		return PointsResult{}, &QueryError{Messages: env.Errors.messages()}
	}
	return PointsResult{Raw: body, Nodes: env.Data.TrafficRegistrationPoints}, nil
}

// VolumesByDay fetches the first page of day-buckets for one point inside
// the given window. Query-level errors are returned as *QueryError so the
// caller can skip the point without aborting the batch.
func (c *Client) VolumesByDay(ctx context.Context, pointID, from, to string) ([]DayBucket, error) {
	body, err := c.do(ctx, volumeByDayQuery(pointID, from, to))
	if err != nil {
		return nil, err
	}

	var env volumeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode volumes for %s: %w", pointID, err)
	}
	if len(env.Errors) > 0 {
		return nil, &QueryError{Messages: env.Errors.messages()}
	}

	edges := env.Data.TrafficData.Volume.ByDay.Edges
	buckets := make([]DayBucket, 0, len(edges))
	for _, e := range edges {
		buckets = append(buckets, e.Node)
	}
	return buckets, nil
}

func (c *Client) do(ctx context.Context, query string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "traffic-ingest")
	req.Header.Set("X-Client", c.clientContact)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
