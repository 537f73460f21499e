// Package browser opens the development server in the user's browser.
package browser

import (
	"io"

	"github.com/pkg/browser"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BrowserOpener = (*Opener)(nil)

// Opener launches the system browser. Outside interactive sessions it only logs the URL.
type Opener struct {
	logger      ports.Logger
	interactive bool
	launch      func(url string) error
}

// NewOpener returns an Opener. interactive is usually detector.Environment.Interactive().
func NewOpener(logger ports.Logger, interactive bool) *Opener {
	return &Opener{
		logger:      logger,
		interactive: interactive,
		launch:      openURL,
	}
}

// Open opens url, or logs it when the session is not interactive.
func (o *Opener) Open(url string) error {
	if !o.interactive {
		o.logger.Info("not opening a browser in a non-interactive session, visit " + url)
		return nil
	}
	if err := o.launch(url); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open browser"), "url", url)
	}
	return nil
}

func openURL(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return browser.OpenURL(url)
}
