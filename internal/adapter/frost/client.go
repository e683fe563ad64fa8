// Package frost is a client for the MET Norway Frost observations API.
// Lookups are nearest-station: for a coordinate pair and a calendar day it
// returns the summed precipitation at the closest station within 50 km.
package frost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
)

// ErrUnauthorized signals a rejected credential. Unlike transient upstream
// trouble this means the FROST_CLIENT_ID is misconfigured, so callers treat
// it as fatal for the whole stage.
var ErrUnauthorized = errors.New("frost: unauthorized, check FROST_CLIENT_ID")

const (
	defaultBaseURL = "https://frost.met.no"

	observationsPath   = "/observations/v0.json"
	precipitationElem  = "precipitation_amount"
	nearestMaxDistance = "50000" // metres
)

// Client queries Frost observations. The client id doubles as the basic-auth
// username; Frost expects an empty password.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Frost client authenticated with the given client id.
func NewClient(clientID string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  defaultBaseURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DailyPrecipitation sums all precipitation_amount observations at the
// nearest station for the given day. It returns nil without error when the
// station reported no observations or the API answered with a non-auth
// error; missing weather data is not fatal.
func (c *Client) DailyPrecipitation(ctx context.Context, lat, lon float64, day time.Time) (*float64, error) {
	date := day.Format("2006-01-02")
	params := url.Values{
		"sources":            {fmt.Sprintf("nearest(POINT(%g %g))", lon, lat)},
		"referencetime":      {fmt.Sprintf("%sT00:00:00Z/%sT23:59:59Z", date, date)},
		"elements":           {precipitationElem},
		"nearestmaxdistance": {nearestMaxDistance},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+observationsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("observations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("frost returned no data", "status", resp.StatusCode, "lat", lat, "lon", lon, "date", date)
		return nil, nil
	}

	var env observationsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}

	total := 0.0
	observed := false
	for _, station := range env.Data {
		for _, obs := range station.Observations {
			if obs.ElementID != precipitationElem {
				continue
			}
			observed = true
			if obs.Value != nil {
				total += *obs.Value
			}
		}
	}
	if !observed {
		return nil, nil
	}

	rounded := math.Round(total*1000) / 1000
	return &rounded, nil
}

type observationsEnvelope struct {
	Data []struct {
		Observations []struct {
			ElementID string   `json:"elementId"`
			Value     *float64 `json:"value"`
		} `json:"observations"`
	} `json:"data"`
}
