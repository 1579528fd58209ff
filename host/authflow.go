package host

import (
	"context"

	"github.com/andynicholson/cricket/client"
	"github.com/rs/zerolog/log"
)

// RunAuthorization opens the provider's authorize page in a browser window
// registered as a popup, waits for the redirect to the callback path, and
// feeds the attempted URL through InterceptRedirect. It returns once the
// redirect has been handled or the window is abandoned.
func (h *Host) RunAuthorization(ctx context.Context, authorizeURL, correlation string, headless bool) error {
	popup := h.windows.Open(WindowPopup, correlation)
	defer popup.Close()

	browserCtx, cancel, err := client.CreateChromeContext(headless)
	if err != nil {
		return err
	}
	defer cancel()

	log.Info().Msg("Waiting for Strava authorization in the browser window")
	finalURL, err := client.AwaitAuthorizationRedirect(browserCtx, authorizeURL, h.callbackPath)
	if err != nil {
		// Abandoned or timed out; no state transition, the popup just closes.
		return err
	}

	h.InterceptRedirect(popup, finalURL)
	return nil
}
