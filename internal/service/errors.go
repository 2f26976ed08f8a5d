package service

import (
	"errors"
	"strings"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrDuplicatePayment     = errors.New("consultation already exists for this payment")
	ErrSignatureMismatch    = errors.New("payment verification failed")
	ErrGatewayNotConfigured = errors.New("payment gateway is not configured")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
)

// ValidationError lists every field of a request that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid or missing fields: " + strings.Join(e.Fields, ", ")
}

// PersistenceError is returned when a payment passed verification but the
// booking could not be stored. It carries the ids support needs to reconcile.
type PersistenceError struct {
	OrderID   string
	PaymentID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return "save consultation for payment " + e.PaymentID + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type fieldErrors []string

func (f *fieldErrors) add(field string) { *f = append(*f, field) }

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
