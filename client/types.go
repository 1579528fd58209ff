package client

import (
	"time"

	"github.com/andynicholson/cricket/db"
)

// TokenResponse is the payload returned by Strava's token endpoint for both
// the authorization-code exchange and the refresh-token exchange. The athlete
// summary is only present on the initial exchange.
type TokenResponse struct {
	TokenType    string      `json:"token_type,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    int64       `json:"expires_at"`
	ExpiresIn    int64       `json:"expires_in,omitempty"`
	Athlete      *db.Athlete `json:"athlete,omitempty"`
}

// normalize fills in ExpiresAt from ExpiresIn when the provider only sent a
// relative expiry.
func (t *TokenResponse) normalize(now time.Time) {
	if t.ExpiresAt == 0 && t.ExpiresIn > 0 {
		t.ExpiresAt = now.Unix() + t.ExpiresIn
	}
}

// ActivityTotals aggregates a set of activities in an athlete's stats.
type ActivityTotals struct {
	Count         int64   `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElapsedTime   int64   `json:"elapsed_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

// AthleteStats is the response of the athlete stats endpoint.
type AthleteStats struct {
	RecentRunTotals ActivityTotals `json:"recent_run_totals"`
	YTDRunTotals    ActivityTotals `json:"ytd_run_totals"`
	AllRunTotals    ActivityTotals `json:"all_run_totals"`
}

// Activity is a single entry of the athlete activities endpoint.
type Activity struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	Distance           float64 `json:"distance"`
	MovingTime         int64   `json:"moving_time"`
	ElapsedTime        int64   `json:"elapsed_time"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	StartDateLocal     string  `json:"start_date_local"`
	AverageSpeed       float64 `json:"average_speed"`
}
