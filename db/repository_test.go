package db_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/andynicholson/cricket/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestRepo sets up an in-memory SQLite database for testing purposes.
func setupTestRepo(t *testing.T) (db.CredentialRepository, *gorm.DB) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&db.Setting{}))
	return db.NewCredentialRepository(gormDB), gormDB
}

func sampleCredentials() *db.Credentials {
	return &db.Credentials{
		AccessToken:  "T1",
		RefreshToken: "R1",
		ExpiresAt:    1_900_000_000,
		Athlete: &db.Athlete{
			ID:        42,
			FirstName: "Trail",
			LastName:  "Runner",
			City:      "Chamonix",
			Country:   "France",
		},
	}
}

func TestCredentialRepository_GetReturnsNilWhenEmpty(t *testing.T) {
	repo, _ := setupTestRepo(t)

	creds, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialRepository_SaveAndGet(t *testing.T) {
	repo, _ := setupTestRepo(t)

	require.NoError(t, repo.Save(context.Background(), sampleCredentials()))

	creds, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "T1", creds.AccessToken)
	assert.Equal(t, "R1", creds.RefreshToken)
	assert.Equal(t, int64(1_900_000_000), creds.ExpiresAt)
	require.NotNil(t, creds.Athlete)
	assert.Equal(t, int64(42), creds.Athlete.ID)
	assert.Equal(t, "Trail", creds.Athlete.FirstName)
}

func TestCredentialRepository_SaveWritesAllThreeKeys(t *testing.T) {
	repo, gormDB := setupTestRepo(t)

	require.NoError(t, repo.Save(context.Background(), sampleCredentials()))

	var settings []db.Setting
	require.NoError(t, gormDB.Find(&settings).Error)
	keys := make(map[string]string, len(settings))
	for _, s := range settings {
		keys[s.Key] = s.Value
	}

	assert.Equal(t, "T1", keys[db.KeyAccessToken])
	assert.Contains(t, keys[db.KeyAthlete], `"id":42`)

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal([]byte(keys[db.KeyTokenData]), &data))
	assert.Equal(t, "T1", data.AccessToken)
	assert.Equal(t, "R1", data.RefreshToken)
	assert.Equal(t, int64(1_900_000_000), data.ExpiresAt)
}

func TestCredentialRepository_SaveReplacesRotatedTokens(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCredentials()))

	rotated := sampleCredentials()
	rotated.AccessToken = "T2"
	rotated.RefreshToken = "R2"
	rotated.ExpiresAt = 1_900_010_000
	require.NoError(t, repo.Save(ctx, rotated))

	creds, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "T2", creds.AccessToken)
	assert.Equal(t, "R2", creds.RefreshToken)
	assert.Equal(t, int64(1_900_010_000), creds.ExpiresAt)
}

func TestCredentialRepository_IncompleteRecordTreatedAsAbsent(t *testing.T) {
	repo, gormDB := setupTestRepo(t)

	// A token payload without an expiry is not usable.
	require.NoError(t, gormDB.Create(&db.Setting{
		Key:   db.KeyTokenData,
		Value: `{"access_token":"T1","refresh_token":"R1"}`,
	}).Error)

	creds, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialRepository_UnparseableRecordTreatedAsAbsent(t *testing.T) {
	repo, gormDB := setupTestRepo(t)

	require.NoError(t, gormDB.Create(&db.Setting{
		Key:   db.KeyTokenData,
		Value: "not json",
	}).Error)

	creds, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestCredentialRepository_MissingRefreshTokenStillLoads(t *testing.T) {
	repo, gormDB := setupTestRepo(t)

	// Such a record is usable until expiry but can never be refreshed.
	require.NoError(t, gormDB.Create(&db.Setting{
		Key:   db.KeyTokenData,
		Value: `{"access_token":"T1","expires_at":1900000000}`,
	}).Error)

	creds, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "T1", creds.AccessToken)
	assert.Empty(t, creds.RefreshToken)
}

func TestCredentialRepository_MissingAthleteStillLoads(t *testing.T) {
	repo, _ := setupTestRepo(t)

	creds := sampleCredentials()
	creds.Athlete = nil
	require.NoError(t, repo.Save(context.Background(), creds))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Athlete)
}

func TestCredentialRepository_SaveRejectsIncompleteRecord(t *testing.T) {
	repo, _ := setupTestRepo(t)

	err := repo.Save(context.Background(), &db.Credentials{AccessToken: "T1"})
	require.Error(t, err)

	err = repo.Save(context.Background(), nil)
	require.Error(t, err)
}

func TestCredentialRepository_Clear(t *testing.T) {
	repo, gormDB := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCredentials()))
	require.NoError(t, repo.Clear(ctx))

	creds, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	var count int64
	require.NoError(t, gormDB.Model(&db.Setting{}).Count(&count).Error)
	assert.Zero(t, count)

	// Clearing an already-empty store is not an error.
	require.NoError(t, repo.Clear(ctx))
}
