package validation

import (
	"net/url"
	"strings"
	"time"

	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return lkerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive.
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return lkerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a duration such as 30s or 5m")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return lkerrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return lkerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateURL validates that value is an absolute http or https URL.
func ValidateURL(module, field, value string) error {
	if value == "" {
		return lkerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide an absolute http or https URL")
	}
	u, err := url.Parse(value)
	if err != nil {
		return lkerrors.NewValidationError(module, field, value, "not a URL: "+err.Error())
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return lkerrors.NewValidationError(module, field, value, "unsupported scheme").
			WithHint("use an http or https URL")
	}
	if u.Host == "" {
		return lkerrors.NewValidationError(module, field, value, "missing host")
	}
	return nil
}

// ValidateLocation validates a catalog location, which may be an http(s)
// URL or a local file path.
func ValidateLocation(module, field, value string) error {
	if value == "" {
		return lkerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a URL or a file path")
	}
	if strings.Contains(value, "://") {
		return ValidateURL(module, field, value)
	}
	return nil
}
