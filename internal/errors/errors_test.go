package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("items", "at least one item is required")

	if err.Error() != "validation failed on items: at least one item is required" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Details["items"] != "at least one item is required" {
		t.Errorf("expected details to carry the field message, got %v", err.Details)
	}

	wrapped := fmt.Errorf("checkout: %w", err)
	if !IsValidation(wrapped) {
		t.Error("expected wrapped validation error to be detected")
	}
	if IsUpstream(wrapped) {
		t.Error("validation error must not be reported as upstream")
	}
}

func TestUpstreamError(t *testing.T) {
	status := NewUpstreamStatusError("catalog", 503)
	if status.Error() != "catalog service returned status 503" {
		t.Errorf("unexpected message: %s", status.Error())
	}

	cause := stderrors.New("connection refused")
	transport := NewUpstreamError("catalog", cause)
	if !Is(transport, cause) {
		t.Error("expected upstream error to unwrap to its cause")
	}
	if !IsUpstream(fmt.Errorf("list products: %w", transport)) {
		t.Error("expected wrapped upstream error to be detected")
	}
}

func TestSentinels(t *testing.T) {
	err := fmt.Errorf("order ord_1: %w", ErrNotFound)
	if !Is(err, ErrNotFound) {
		t.Error("expected ErrNotFound in chain")
	}
	if Is(err, ErrForbidden) {
		t.Error("did not expect ErrForbidden in chain")
	}
}
