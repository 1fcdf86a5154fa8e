// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import "errors"

var (
	// ErrTooFewPoints is returned when fewer than MinSites generator points are given.
	ErrTooFewPoints = errors.New("mosaic: at least 3 generator points are required")
	// ErrInvalidDomain is returned for a non-positive or non-finite width or height.
	ErrInvalidDomain = errors.New("mosaic: domain width and height must be positive and finite")
	// ErrInvalidPoint is returned when a generator point has a non-finite coordinate.
	ErrInvalidPoint = errors.New("mosaic: generator point is not finite")
	// ErrUnevaluable wraps internal failures of the tessellation for a given point set.
	// Callers should retry with the last known-good points or abort the step.
	ErrUnevaluable = errors.New("mosaic: configuration cannot be tessellated")
)
