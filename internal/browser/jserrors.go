package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// JSErrorCollector records uncaught exceptions and console.error calls on a tab.
// Events arrive on chromedp's event goroutine.
type JSErrorCollector struct {
	mu     sync.Mutex
	errors []string
}

// NewJSErrorCollector starts listening on the tab in ctx. Call before navigating.
func NewJSErrorCollector(ctx context.Context) *JSErrorCollector {
	c := &JSErrorCollector{}
	chromedp.ListenTarget(ctx, c.handle)
	return c
}

func (c *JSErrorCollector) handle(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return
		}
		desc := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
			desc = e.ExceptionDetails.Exception.Description
		}
		c.add(fmt.Sprintf("EXCEPTION: %s", desc))

	case *runtime.EventConsoleAPICalled:
		if e.Type != runtime.APITypeError {
			return
		}
		var parts []string
		for _, arg := range e.Args {
			if arg.Value != nil {
				parts = append(parts, string(arg.Value))
			} else if arg.Description != "" {
				parts = append(parts, arg.Description)
			}
		}
		if len(parts) > 0 {
			c.add(fmt.Sprintf("console.error: %s", strings.Join(parts, " ")))
		}
	}
}

func (c *JSErrorCollector) add(msg string) {
	// Evaluate-driven CSP reports and missing favicons are noise.
	if strings.Contains(msg, "Content Security Policy") || strings.Contains(msg, "favicon") {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

// Errors returns a copy of the collected errors.
func (c *JSErrorCollector) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// Reset clears collected errors, e.g. before a new navigation.
func (c *JSErrorCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = nil
}
