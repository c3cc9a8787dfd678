package errors

import (
	"strings"

	"go.uber.org/multierr"
)

// ChainedError keeps an ordered list of failures. The first one is the
// primary failure; later ones happened while cleaning up after it.
type ChainedError struct {
	err error
}

// Chain appends next onto primary.
// Nil errors are skipped; if only one error remains it is returned as is.
func Chain(primary error, next ...error) error {
	combined := primary
	if ce, ok := primary.(*ChainedError); ok {
		combined = ce.err
	}
	for _, err := range next {
		combined = multierr.Append(combined, err)
	}

	if len(multierr.Errors(combined)) <= 1 {
		return combined
	}
	return &ChainedError{err: combined}
}

// Primary returns the failure that happened first
func (e *ChainedError) Primary() error {
	return e.Chain()[0]
}

// Chain returns every failure in the order it happened
func (e *ChainedError) Chain() []error {
	return multierr.Errors(e.err)
}

func (e *ChainedError) Error() string {
	errs := e.Chain()
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; next: ")
}

func (e *ChainedError) Unwrap() []error {
	return e.Chain()
}
