/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ipd

import "errors"

var (
	// ErrConfiguration marks a broken invariant upstream of the core: an odd
	// rematch pool, a group that is not a pair, a missing payoff entry.
	// It is always fatal for the session.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingInput is returned when a barrier is asked to resolve before
	// every expected submission is present.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidState is returned for reads and writes that the current
	// phase or group status does not allow.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput is returned for submissions outside their domain.
	ErrInvalidInput = errors.New("invalid input")
)
