package scenario

import (
	"context"

	"github.com/3000Studios/vite-react/internal/browser"
)

// Session is the browser capability the runner drives. *browser.Session
// implements it; tests substitute fakes.
type Session interface {
	Navigate(ctx context.Context, url string) (int, error)
	WaitVisible(ctx context.Context, loc browser.Locator) error
	Click(ctx context.Context, loc browser.Locator) error
	SetViewport(ctx context.Context, vp browser.Viewport) error
	Attribute(ctx context.Context, loc browser.Locator, name string) (string, bool, error)
	Text(ctx context.Context, loc browser.Locator) (string, bool, error)
	Visible(ctx context.Context, loc browser.Locator) (bool, error)
	Count(ctx context.Context, loc browser.Locator) (int, error)
	Title(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	JSErrors() []string
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Opener acquires a fresh Session for one run.
type Opener func(ctx context.Context) (Session, error)

// BrowserOpener adapts browser.Open to an Opener.
func BrowserOpener(opts browser.Options) Opener {
	return func(ctx context.Context) (Session, error) {
		s, err := browser.Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
