package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrTimeout", ErrTimeout, "operation timed out"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrDecode", ErrDecode, "decode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err:  NewValidationError("cache", "ttl", -1, "must be positive"),
			want: "cache: invalid ttl=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: NewValidationError("config", "github_api_url", "ftp://x", "unsupported scheme").
				WithHint("use an http or https URL"),
			want: "config: invalid github_api_url=ftp://x (unsupported scheme) - use an http or https URL",
		},
		{
			name: "string value",
			err:  NewValidationError("refresh", "spec", "", "cannot be empty"),
			want: "refresh: invalid spec= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_WrapsInvalidConfiguration(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")
	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}

	result := verr.WithHint("hint")
	if result != verr {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("lineageapps", "WorkflowRuns", cause)

	if got, want := err.Error(), "lineageapps.WorkflowRuns failed: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithContext("GET /actions/workflows")
	if got, want := err.Error(), "lineageapps.WorkflowRuns failed: connection refused (GET /actions/workflows)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name string
		err  *DecodeError
		want string
	}{
		{
			name: "element field",
			err:  NewDecodeError("apps.json", 3, "repository", "missing"),
			want: "apps.json[3].repository: missing",
		},
		{
			name: "whole document",
			err:  NewDecodeError("devices.json", -1, "", "not a JSON array").WithCause(errors.New("unexpected EOF")),
			want: "devices.json: not a JSON array: unexpected EOF",
		},
		{
			name: "nested field",
			err:  NewDecodeError("devices.json", 0, "soc.vendor", "missing"),
			want: "devices.json[0].soc.vendor: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrDecode) {
				t.Error("DecodeError should match ErrDecode")
			}
		})
	}
}

func TestDecodeError_UnwrapsCause(t *testing.T) {
	cause := errors.New("bad token")
	err := NewDecodeError("apps.json", -1, "", "invalid JSON").WithCause(cause)
	if !errors.Is(err, cause) {
		t.Error("DecodeError should wrap its cause")
	}
}

func TestPredicates(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")
	derr := NewDecodeError("doc", 0, "f", "missing")

	tests := []struct {
		name      string
		err       error
		retryable bool
		temporary bool
		invalid   bool
		decode    bool
		notFound  bool
	}{
		{"timeout", ErrTimeout, true, true, false, false, false},
		{"closed", ErrClosed, false, true, false, false, false},
		{"wrapped timeout", fmt.Errorf("fetch: %w", ErrTimeout), true, true, false, false, false},
		{"validation", verr, false, false, true, false, false},
		{"wrapped validation", &OperationError{Cause: verr}, false, false, true, false, false},
		{"decode", derr, false, false, false, true, false},
		{"not found", &OperationError{Cause: ErrNotFound}, false, false, false, false, true},
		{"plain", errors.New("random"), false, false, false, false, false},
		{"nil", nil, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsTemporary(tt.err); got != tt.temporary {
				t.Errorf("IsTemporary() = %v, want %v", got, tt.temporary)
			}
			if got := IsValidationError(tt.err); got != tt.invalid {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.invalid)
			}
			if got := IsDecodeError(tt.err); got != tt.decode {
				t.Errorf("IsDecodeError() = %v, want %v", got, tt.decode)
			}
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.notFound)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
		WithHint("use a value between 0 and 10")

	msg := err.Error()
	for _, part := range []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message should contain %q, got %q", part, msg)
		}
	}
}
