package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsType(t *testing.T) {
	err := Input("hours must be greater than zero")
	if !IsType(err, TypeInput) {
		t.Error("IsType failed on a direct error")
	}
	if IsType(err, TypeNotFound) {
		t.Error("IsType matched the wrong type")
	}
	if IsType(nil, TypeInput) {
		t.Error("IsType matched nil")
	}
	if IsType(stderrors.New("plain"), TypeInput) {
		t.Error("IsType matched an untyped error")
	}

	wrapped := fmt.Errorf("handling request: %w", err)
	if !IsType(wrapped, TypeInput) {
		t.Error("IsType failed through a wrapping layer")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := Wrap(TypeConfig, "open rules directory", cause)
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !IsType(err, TypeConfig) {
		t.Error("wrapped error lost its type")
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("rule snapshot", "sp@2")
	if got := err.Error(); got == "" || !IsType(err, TypeNotFound) {
		t.Errorf("unexpected not-found error: %q", got)
	}
}

func TestWithContext(t *testing.T) {
	err := Rules("invalid rule set", nil).WithContext("unit", "sp")
	if err.Context["unit"] != "sp" {
		t.Errorf("context = %+v", err.Context)
	}
}
