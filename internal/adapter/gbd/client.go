package gbd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/lbwsg/get-draws/internal/observability"
)

// Endpoint labels, also used as metric label values.
const (
	EndpointLocations = "locations"
	EndpointAgeGroups = "age_groups"
	EndpointDraws     = "draws"
)

// Client talks to the central draws service: location metadata, age-group
// metadata and draws.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a draws service client. A zero timeout means requests
// are bounded only by their context.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Locations returns the (id, name) rows of a location set for a round.
func (c *Client) Locations(ctx context.Context, locationSetID, roundID int) ([]domain.LocationRecord, error) {
	q := url.Values{
		"location_set_id": {strconv.Itoa(locationSetID)},
		"gbd_round_id":    {strconv.Itoa(roundID)},
	}
	var resp LocationsResponse
	if err := c.do(ctx, http.MethodGet, EndpointLocations, "/v1/locations?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

// AgeGroups returns the age group ids of an age group set for a round.
func (c *Client) AgeGroups(ctx context.Context, ageGroupSetID, roundID int) ([]int, error) {
	q := url.Values{
		"age_group_set_id": {strconv.Itoa(ageGroupSetID)},
		"gbd_round_id":     {strconv.Itoa(roundID)},
	}
	var resp AgeGroupsResponse
	if err := c.do(ctx, http.MethodGet, EndpointAgeGroups, "/v1/age-groups?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	ids := make([]int, len(resp.AgeGroups))
	for i, ag := range resp.AgeGroups {
		ids[i] = ag.ID
	}
	return ids, nil
}

// Draws pulls the draws table for req. A 404 or an empty table is reported
// as domain.ErrNoData.
func (c *Client) Draws(ctx context.Context, req domain.DrawsRequest) (domain.DrawsTable, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.DrawsTable{}, fmt.Errorf("encode draws request: %w", err)
	}

	var table domain.DrawsTable
	err = c.do(ctx, http.MethodPost, EndpointDraws, "/v1/draws", body, &table)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return domain.DrawsTable{}, fmt.Errorf("%w: %s", domain.ErrNoData, apiErr.Body)
	}
	if err != nil {
		return domain.DrawsTable{}, err
	}
	if table.Len() == 0 {
		return domain.DrawsTable{}, fmt.Errorf("%w: empty table for source %s location %d", domain.ErrNoData, req.Source, req.LocationID)
	}
	return table, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, path string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		c.observe(endpoint, time.Since(start), err)
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("draws service request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, d time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.APIDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// APIError is a non-200 answer from the draws service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("draws API error: status %d: %s", e.StatusCode, e.Body)
}
