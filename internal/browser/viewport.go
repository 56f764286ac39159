package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidViewport is returned when a viewport string is not WxH.
var ErrInvalidViewport = errors.New("invalid viewport")

// Viewport is a browser window size in CSS pixels.
type Viewport struct {
	Width  int64
	Height int64
}

// ParseViewport parses "WxH", e.g. "375x812".
func ParseViewport(s string) (Viewport, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "x", 2)
	if len(parts) != 2 {
		return Viewport{}, fmt.Errorf("%w: %q, want WxH", ErrInvalidViewport, s)
	}
	w, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || w <= 0 {
		return Viewport{}, fmt.Errorf("%w: width in %q", ErrInvalidViewport, s)
	}
	h, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || h <= 0 {
		return Viewport{}, fmt.Errorf("%w: height in %q", ErrInvalidViewport, s)
	}
	return Viewport{Width: w, Height: h}, nil
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// IsZero reports whether the viewport is unset.
func (v Viewport) IsZero() bool {
	return v.Width == 0 && v.Height == 0
}
