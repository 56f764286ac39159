package browser

import (
	"errors"
	"testing"
)

func TestParseViewport(t *testing.T) {
	tests := []struct {
		in      string
		want    Viewport
		wantErr bool
	}{
		{"375x812", Viewport{Width: 375, Height: 812}, false},
		{" 1280x800 ", Viewport{Width: 1280, Height: 800}, false},
		{"1280", Viewport{}, true},
		{"0x800", Viewport{}, true},
		{"1280x-1", Viewport{}, true},
		{"wide x tall", Viewport{}, true},
		{"", Viewport{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseViewport(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseViewport(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidViewport) {
				t.Errorf("expected ErrInvalidViewport, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseViewport(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestViewportString(t *testing.T) {
	if s := (Viewport{Width: 375, Height: 812}).String(); s != "375x812" {
		t.Errorf("String() = %s", s)
	}
	if !(Viewport{}).IsZero() {
		t.Error("zero viewport should report IsZero")
	}
}
