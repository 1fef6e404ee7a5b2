// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// errors.go - sentinel errors. Callers branch with errors.Is; implementations
// attach method context with %w.

package fixture

import "errors"

// ErrTooFewDevices indicates a size parameter below the constructor's minimum.
var ErrTooFewDevices = errors.New("fixture: parameter too small")

// ErrInvalidProbability indicates a probability outside [0,1].
var ErrInvalidProbability = errors.New("fixture: probability out of range")

// ErrNeedRandSource indicates a stochastic constructor ran without WithSeed.
var ErrNeedRandSource = errors.New("fixture: random source required")

// ErrConstructFailed indicates a malformed Build call (e.g. nil constructor).
var ErrConstructFailed = errors.New("fixture: construction failed")
