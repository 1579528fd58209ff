package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// --- HTTP helpers ---

// createRequest creates an HTTP request with bearer authorization.
func (c *StravaClient) createRequest(ctx context.Context, method, urlStr, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", urlStr).Msg("Failed to create HTTP request object")
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	return req, nil
}

// sendRequest sends an HTTP request and checks for a 2xx status. It waits for
// a slot from the global API rate limiter first.
func (c *StravaClient) sendRequest(req *http.Request) (*http.Response, error) {
	if err := waitForRequestSlot(req.Context()); err != nil {
		return nil, err
	}

	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("Sending HTTP request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		bodyStr := ""
		if readErr == nil {
			bodyStr = string(bodyBytes)
		}
		resp.Body.Close()
		err = fmt.Errorf("unexpected HTTP status: %d %s. Body: %s", resp.StatusCode, http.StatusText(resp.StatusCode), bodyStr)
		log.Error().Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("HTTP request returned non-OK status")
		return nil, err
	}
	return resp, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", resp.Request.URL.String()).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}

// --- Strava API interaction ---

// GetAthleteStats retrieves the athlete's activity totals.
func (c *StravaClient) GetAthleteStats(ctx context.Context, accessToken string, athleteID int64) (*AthleteStats, error) {
	urlStr := fmt.Sprintf("%s/athletes/%d/stats", c.APIBaseURL, athleteID)
	log.Info().Int64("athlete_id", athleteID).Msg("Fetching athlete stats")

	body, err := c.getJSON(ctx, urlStr, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch athlete stats: %w", err)
	}

	var stats AthleteStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse athlete stats JSON: %w", err)
	}
	return &stats, nil
}

// GetActivities retrieves one page of the athlete's activities, most recent
// first. Page numbering starts at 1.
func (c *StravaClient) GetActivities(ctx context.Context, accessToken string, page, perPage int) ([]Activity, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	urlStr := fmt.Sprintf("%s/athlete/activities?page=%d&per_page=%d", c.APIBaseURL, page, perPage)
	log.Info().Int("page", page).Int("per_page", perPage).Msg("Fetching activities")

	body, err := c.getJSON(ctx, urlStr, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("failed to parse activities JSON: %w", err)
	}
	return activities, nil
}

// GetAllActivities walks the activities endpoint page by page until a short
// page signals the end. onPage, if non-nil, is called after each fetched page
// with the running total.
func (c *StravaClient) GetAllActivities(ctx context.Context, accessToken string, perPage int, onPage func(fetched int)) ([]Activity, error) {
	if perPage < 1 {
		perPage = 100
	}

	var all []Activity
	for page := 1; ; page++ {
		batch, err := c.GetActivities(ctx, accessToken, page, perPage)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if onPage != nil {
			onPage(len(all))
		}
		if len(batch) < perPage {
			return all, nil
		}
	}
}

func (c *StravaClient) getJSON(ctx context.Context, urlStr, accessToken string) ([]byte, error) {
	req, err := c.createRequest(ctx, http.MethodGet, urlStr, accessToken)
	if err != nil {
		return nil, err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	return readResponseBody(resp)
}
