package common

import (
	"errors"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	e := NewAppError("SKILL_NOT_FOUND", "unknown skill: nope", ErrNotFound)
	if !errors.Is(e, ErrNotFound) {
		t.Fatal("AppError must expose its cause to errors.Is")
	}
	if got := e.Error(); got != "SKILL_NOT_FOUND: unknown skill: nope: resource not found" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestAppErrorWithoutCause(t *testing.T) {
	e := NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", nil)
	if got := e.Error(); got != "CONFIG_ERROR: HTTP_ADDR is required" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestWrapErrorPreservesChain(t *testing.T) {
	wrapped := WrapError(ErrInvalidInput, "open pdf")
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Fatal("WrapError broke the error chain")
	}
	if got := wrapped.Error(); got != "open pdf: invalid input" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(nil, "anything") != nil {
		t.Fatal("WrapError(nil) must stay nil")
	}
}
