package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/3000Studios/vite-react/internal/browser"
)

var errConnRefused = errors.New("net::ERR_CONNECTION_REFUSED")

type fakeElement struct {
	visible bool
	text    string
	attrs   map[string]string
	count   int
}

type fakePage struct {
	status   int
	title    string
	elements map[string]*fakeElement
}

// fakeSession is an in-memory Session. Elements are keyed by Locator.String().
type fakeSession struct {
	mu sync.Mutex

	pages    map[string]*fakePage
	current  string
	viewport browser.Viewport
	onClick  map[string]func(*fakePage)
	jsErrors []string
	evalErr  error

	navigations []string
	screenshots []string
	closed      int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:   make(map[string]*fakePage),
		onClick: make(map[string]func(*fakePage)),
	}
}

func (f *fakeSession) addPage(url string, p *fakePage) {
	if p.status == 0 {
		p.status = 200
	}
	if p.elements == nil {
		p.elements = make(map[string]*fakeElement)
	}
	f.pages[url] = p
}

func (f *fakeSession) opener() Opener {
	return func(ctx context.Context) (Session, error) { return f, nil }
}

// element returns a copy of the current page's element for loc.
func (f *fakeSession) element(loc browser.Locator) *fakeElement {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pages[f.current]
	if p == nil {
		return nil
	}
	el, ok := p.elements[loc.String()]
	if !ok {
		return nil
	}
	cp := *el
	return &cp
}

// set changes the element for loc on the page at url.
func (f *fakeSession) set(url string, loc browser.Locator, el *fakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url].elements[loc.String()] = el
}

func (f *fakeSession) Navigate(ctx context.Context, url string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	p, ok := f.pages[url]
	if !ok {
		return 0, fmt.Errorf("navigate %s: %w", url, errConnRefused)
	}
	f.current = url
	if p.status >= 400 {
		return p.status, fmt.Errorf("navigate %s: %w: %d", url, browser.ErrHTTPStatus, p.status)
	}
	return p.status, nil
}

func (f *fakeSession) WaitVisible(ctx context.Context, loc browser.Locator) error {
	if el := f.element(loc); el != nil && el.visible {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeSession) Click(ctx context.Context, loc browser.Locator) error {
	if err := f.WaitVisible(ctx, loc); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fn := f.onClick[loc.String()]; fn != nil {
		fn(f.pages[f.current])
	}
	return nil
}

func (f *fakeSession) SetViewport(ctx context.Context, vp browser.Viewport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewport = vp
	return nil
}

func (f *fakeSession) Attribute(ctx context.Context, loc browser.Locator, name string) (string, bool, error) {
	if f.evalErr != nil {
		return "", false, f.evalErr
	}
	el := f.element(loc)
	if el == nil {
		return "", false, nil
	}
	v, ok := el.attrs[name]
	return v, ok, nil
}

func (f *fakeSession) Text(ctx context.Context, loc browser.Locator) (string, bool, error) {
	if f.evalErr != nil {
		return "", false, f.evalErr
	}
	el := f.element(loc)
	if el == nil {
		return "", false, nil
	}
	return el.text, true, nil
}

func (f *fakeSession) Visible(ctx context.Context, loc browser.Locator) (bool, error) {
	if f.evalErr != nil {
		return false, f.evalErr
	}
	el := f.element(loc)
	return el != nil && el.visible, nil
}

func (f *fakeSession) Count(ctx context.Context, loc browser.Locator) (int, error) {
	if f.evalErr != nil {
		return 0, f.evalErr
	}
	el := f.element(loc)
	if el == nil {
		return 0, nil
	}
	if el.count == 0 {
		return 1, nil
	}
	return el.count, nil
}

func (f *fakeSession) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.pages[f.current]; p != nil {
		return p.title, nil
	}
	return "", nil
}

func (f *fakeSession) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeSession) JSErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.jsErrors...)
}

func (f *fakeSession) Screenshot(ctx context.Context, path string) error {
	f.mu.Lock()
	f.screenshots = append(f.screenshots, path)
	f.mu.Unlock()
	return os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644)
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}
