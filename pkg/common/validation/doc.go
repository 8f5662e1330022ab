// Package validation provides the checks used by lineagekit constructors
// and the configuration loader.
//
// Every failure is reported as an *errors.ValidationError so callers can
// match it with errors.IsValidationError and show the attached hint.
package validation
