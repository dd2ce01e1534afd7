package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "missing %s", "skribble id")
	want := "INVALID_INPUT: missing skribble id"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeRemoteFetch, cause, "fetching media %s", "abc")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if got := err.Error(); got != "REMOTE_FETCH: fetching media abc: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsMatchesCodeThroughChain(t *testing.T) {
	inner := New(ErrCodeIntegrity, "digest mismatch")
	outer := fmt.Errorf("stage failed: %w", inner)

	if !Is(outer, ErrCodeIntegrity) {
		t.Error("Is should find the code through fmt.Errorf wrapping")
	}
	if Is(outer, ErrCodeUpload) {
		t.Error("Is should not match a different code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCollision, "assets colliding")); got != ErrCodeCollision {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeCollision)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := Wrap(ErrCodeProcessing, stderrors.New("nil buffer"), "asset has no image")
	if got := UserMessage(err); got != "asset has no image" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage plain = %q", got)
	}
}
