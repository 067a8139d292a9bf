package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestHarvestError_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewHarvestError(ErrCodeNetwork, "request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}

	var he *HarvestError
	if !errors.As(fmt.Errorf("outer: %w", err), &he) {
		t.Fatal("HarvestError not reachable through errors.As")
	}
	if he.Code != ErrCodeNetwork {
		t.Errorf("code = %s", he.Code)
	}
}

func TestHarvestError_ErrorString(t *testing.T) {
	with := NewHarvestError(ErrCodeBlocked, "blocked by target", errors.New("HTTP 403"))
	if got := with.Error(); got != "BLOCKED: blocked by target: HTTP 403" {
		t.Errorf("Error() = %q", got)
	}
	without := NewHarvestError(ErrCodeTimeout, "page budget exceeded", nil)
	if got := without.Error(); got != "HARVEST_TIMEOUT: page budget exceeded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestHarvestError_Retryable(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{ErrCodeNetwork, true},
		{ErrCodeBlocked, true},
		{ErrCodePolicyDisallowed, false},
		{ErrCodeExtraction, false},
		{ErrCodeInvalidInput, false},
		{ErrCodeTimeout, false},
	}
	for _, tt := range tests {
		err := NewHarvestError(tt.code, "x", nil)
		if err.Retryable() != tt.want {
			t.Errorf("Retryable(%s) = %v, want %v", tt.code, err.Retryable(), tt.want)
		}
	}
}

func TestHarvestRequest_Defaults(t *testing.T) {
	r := &HarvestRequest{StartURL: "https://example.com", TemplateID: "t"}
	r.Defaults()
	if r.MaxPages != 100 || r.MaxDepth != 5 {
		t.Errorf("defaults = %d/%d, want 100/5", r.MaxPages, r.MaxDepth)
	}

	r2 := &HarvestRequest{MaxPages: 10, MaxDepth: 2}
	r2.Defaults()
	if r2.MaxPages != 10 || r2.MaxDepth != 2 {
		t.Errorf("explicit values overwritten: %d/%d", r2.MaxPages, r2.MaxDepth)
	}
}
