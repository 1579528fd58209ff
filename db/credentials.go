package db

import (
	"encoding/json"
)

// Storage keys for the Strava credential record. The record is spread over
// three rows of the settings table; Save and Clear treat the three as a
// single unit.
const (
	KeyAccessToken = "strava_access_token"
	KeyAthlete     = "strava_athlete"
	KeyTokenData   = "strava_token_data"
)

// Setting is a single row of the local key-value store.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

// Athlete is the identity summary returned by Strava alongside a token grant.
type Athlete struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstname"`
	LastName        string `json:"lastname"`
	ProfileImageURL string `json:"profile"`
	City            string `json:"city,omitempty"`
	Country         string `json:"country,omitempty"`
}

// Credentials is the persisted credential record for the connected account.
// ExpiresAt is the absolute epoch-seconds expiry of AccessToken.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	Athlete      *Athlete
}

// tokenData is the JSON payload stored under KeyTokenData.
type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (c *Credentials) marshalTokenData() (string, error) {
	raw, err := json.Marshal(tokenData{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
