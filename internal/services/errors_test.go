package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mintwatch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpload, "uploading", "media", "attempts exhausted", base)
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"uploading", "media", "attempts exhausted", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrMissingMedia, "loading", "", "no media file", nil)
	if !errors.Is(err, services.ErrMissingMedia) {
		t.Fatalf("expected marker, got %v", err)
	}
	if err.Error() != "missing media: loading: no media file" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindAndHint(t *testing.T) {
	funds := services.Wrap(services.ErrUpload, "uploading", "media", "not retried",
		fmt.Errorf("%w: 402", services.ErrInsufficientFunds))

	tests := []struct {
		err  error
		kind string
	}{
		{services.Wrap(services.ErrMissingMedia, "loading", "", "", nil), "missing_media"},
		{services.Wrap(services.ErrMissingMetadata, "loading", "", "", nil), "missing_metadata"},
		{services.Wrap(services.ErrInvalidMetadata, "validating", "", "", nil), "invalid_metadata"},
		{funds, "insufficient_funds"},
		{services.Wrap(services.ErrUpload, "uploading", "", "", errors.New("503")), "upload"},
		{services.Wrap(services.ErrVerificationTimeout, "uploading", "", "", nil), "verification_timeout"},
		{services.Wrap(services.ErrMint, "minting", "", "", nil), "mint"},
		{services.Wrap(services.ErrCompletion, "completed", "archive", "", nil), "completion"},
		{errors.New("other"), "unknown"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.kind {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
		if tt.err != nil && services.Hint(tt.err) == "" {
			t.Errorf("expected a hint for %v", tt.err)
		}
	}
	if !errors.Is(funds, services.ErrUpload) {
		t.Fatal("insufficient funds failure must still be an upload error")
	}
}
