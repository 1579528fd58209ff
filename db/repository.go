package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository defines decoupled operations for credential persistence.
// Get returns nil when no usable record exists. Save replaces the whole record
// in one transaction. Clear removes the record and is a no-op when absent.
type CredentialRepository interface {
	Get(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}

// gormCredentialRepo is a GORM-backed implementation of CredentialRepository.
// Use constructor NewCredentialRepository to obtain an instance.
type gormCredentialRepo struct{ db *gorm.DB }

// NewCredentialRepository creates a CredentialRepository. Accepts *gorm.DB to avoid global access.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &gormCredentialRepo{db: db}
}

func (r *gormCredentialRepo) Get(ctx context.Context) (*Credentials, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}

	raw, err := r.getValue(ctx, KeyTokenData)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil // No record stored.
	}

	var data tokenData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Error().Err(err).Msg("Failed to parse stored token data")
		return nil, nil // Unreadable record is treated as absent.
	}

	// A record without an access token or expiry cannot be used; treat it as
	// absent rather than handing out a half-formed credential.
	if data.AccessToken == "" || data.ExpiresAt == 0 {
		log.Warn().Msg("Stored token data is incomplete; treating record as absent")
		return nil, nil
	}

	creds := &Credentials{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    data.ExpiresAt,
	}

	if rawAthlete, err := r.getValue(ctx, KeyAthlete); err == nil && rawAthlete != "" {
		var athlete Athlete
		if err := json.Unmarshal([]byte(rawAthlete), &athlete); err != nil {
			log.Error().Err(err).Msg("Failed to parse stored athlete data")
		} else {
			creds.Athlete = &athlete
		}
	}

	return creds, nil
}

func (r *gormCredentialRepo) Save(ctx context.Context, creds *Credentials) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if creds == nil || creds.AccessToken == "" || creds.ExpiresAt == 0 {
		return fmt.Errorf("refusing to save incomplete credential record")
	}

	data, err := creds.marshalTokenData()
	if err != nil {
		return fmt.Errorf("failed to serialize token data: %w", err)
	}

	rawAthlete := ""
	if creds.Athlete != nil {
		b, err := json.Marshal(creds.Athlete)
		if err != nil {
			return fmt.Errorf("failed to serialize athlete data: %w", err)
		}
		rawAthlete = string(b)
	}

	// All three keys are replaced together so a rotated refresh token can
	// never survive next to a stale access token.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range []Setting{
			{Key: KeyAccessToken, Value: creds.AccessToken},
			{Key: KeyAthlete, Value: rawAthlete},
			{Key: KeyTokenData, Value: data},
		} {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormCredentialRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).
		Where("key IN ?", []string{KeyAccessToken, KeyAthlete, KeyTokenData}).
		Delete(&Setting{}).Error
}

func (r *gormCredentialRepo) getValue(ctx context.Context, key string) (string, error) {
	var s Setting
	err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}
