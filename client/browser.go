package client

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// authorizationTimeout bounds how long the authorization window stays open
// waiting for the user to approve access.
const authorizationTimeout = 4 * time.Minute

// CreateChromeContext builds a chromedp context backed by a locally installed
// Chrome or Chromium. The authorization flow needs a visible window, since the
// user has to approve access; headless is only useful in tests.
func CreateChromeContext(headless bool) (context.Context, context.CancelFunc, error) {
	var execPath string
	if p, err := exec.LookPath("google-chrome"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chromium"); err == nil {
		execPath = p
	} else if p, err := exec.LookPath("chrome"); err == nil {
		execPath = p
	} else {
		return nil, nil, fmt.Errorf("no Chrome or Chromium executable found in PATH")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(execPath))
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocatorCtx, cancelAllocator := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelContext := chromedp.NewContext(allocatorCtx, chromedp.WithLogf(log.Info().Msgf))
	return ctx, func() {
		cancelContext()
		cancelAllocator()
	}, nil
}

// AwaitAuthorizationRedirect navigates the browser window to the authorize
// URL and polls the window location until the provider redirects to the
// callback path. The callback target is not a reachable resource, so the
// navigation never completes; the attempted URL is what gets returned.
func AwaitAuthorizationRedirect(ctx context.Context, authorizeURL, callbackPath string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, authorizationTimeout)
	defer cancel()

	var finalURL string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(authorizeURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for {
				var currentURL string
				if err := chromedp.Location(&currentURL).Do(ctx); err != nil {
					return err
				}
				if strings.Contains(currentURL, callbackPath) {
					finalURL = currentURL
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(500 * time.Millisecond):
				}
			}
		}),
	)
	if err != nil {
		return "", fmt.Errorf("authorization window closed without completing: %w", err)
	}
	return finalURL, nil
}
