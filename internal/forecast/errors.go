package forecast

import (
	"errors"
	"fmt"

	"pv_forecast/internal/models"
)

// Input-validation errors. Recoverable; no request is issued.
var (
	ErrInvalidPower      = errors.New("power must be a finite number in (0, 1000] kWp")
	ErrInvalidAzimuth    = errors.New("azimuth must be a finite number in [0, 360]°")
	ErrInvalidTilt       = errors.New("tilt must be a finite number in [0, 90]°")
	ErrInvalidModuleType = errors.New("unknown module type")
	ErrInvalidLoss       = errors.New("loss and efficiency fractions must be in [0, 1]")

	// ErrOutOfRange is shared with the site state machine.
	ErrOutOfRange = models.ErrOutOfRange
)

// Service errors. Surfaced to the user, never retried.
var (
	ErrTransport          = errors.New("forecast service unreachable")
	ErrServer             = errors.New("forecast service error")
	ErrValidationRejected = errors.New("forecast service rejected the parameters")
	ErrEmptyForecast      = errors.New("forecast service returned no hourly data")
)

// ErrMalformedRecord marks a contract violation by the upstream service.
var ErrMalformedRecord = errors.New("malformed hourly record")

// FieldError names the form field that failed validation.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ServiceError is a classified failure of the forecast exchange.
type ServiceError struct {
	Kind       error // one of the service sentinels or ErrMalformedRecord
	StatusCode int   // 0 when no response was received
	Detail     string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// RecordError locates a malformed record in the series.
type RecordError struct {
	Index  int
	Hour   string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%v: record %d (%q): %s", ErrMalformedRecord, e.Index, e.Hour, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }

// Category maps an error to the user-facing message category.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "connection"
	case errors.Is(err, ErrEmptyForecast):
		return "empty_forecast"
	case errors.Is(err, ErrValidationRejected):
		return "invalid_parameters"
	case errors.Is(err, ErrMalformedRecord):
		return "contract_violation"
	case errors.Is(err, ErrServer):
		return "server"
	case IsInputError(err):
		return "input"
	default:
		return "unknown"
	}
}

// IsInputError reports whether err is a local input-validation failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidPower) ||
		errors.Is(err, ErrInvalidAzimuth) ||
		errors.Is(err, ErrInvalidTilt) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrInvalidModuleType) ||
		errors.Is(err, ErrInvalidLoss)
}
