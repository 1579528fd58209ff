package client

import "fmt"

// ExchangeError reports a rejected authorization-code exchange. The code is
// single-use, so this is not retryable.
type ExchangeError struct {
	Status  int
	Message string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Message)
}

// RefreshError reports a rejected refresh token (revoked access or
// provider-side invalidation). Not retryable; the caller must drop the
// credential record.
type RefreshError struct {
	Status  int
	Message string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.Status, e.Message)
}
