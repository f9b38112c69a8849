package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestHasAllowedExtension(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"menu.jpg", true},
		{"menu.JPEG", true},
		{"scan.final.png", true},
		{"menu.gif", false},
		{"menu", false},
		{"menu.", false},
		{"jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAllowedExtension(tt.name); got != tt.want {
				t.Errorf("HasAllowedExtension(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMenuImage_Empty(t *testing.T) {
	var nilImage *MenuImage
	if !nilImage.Empty() {
		t.Error("nil image should be empty")
	}
	if !(&MenuImage{MimeType: "image/png"}).Empty() {
		t.Error("image without data should be empty")
	}
	if (&MenuImage{Data: []byte{0xFF}}).Empty() {
		t.Error("image with data should not be empty")
	}
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("quota exceeded")

	extractErr := &ExtractionError{Err: cause, Partial: `{"items":[]}`}
	if !errors.Is(extractErr, cause) {
		t.Error("ExtractionError should unwrap to its cause")
	}

	genErr := &GenerationError{Index: 1, Dish: "Caesar Salad", Err: cause}
	if !errors.Is(genErr, cause) {
		t.Error("GenerationError should unwrap to its cause")
	}
	if got := genErr.Error(); got == "" || !strings.Contains(got, "Caesar Salad") {
		t.Errorf("GenerationError message should name the dish: %s", got)
	}
}
