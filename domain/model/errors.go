package model

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrTokenUnavailable means the account has no usable credential and refresh did not help.
	ErrTokenUnavailable = errors.New("token unavailable")
	// ErrUpstreamRejected means the platform answered with an error envelope.
	ErrUpstreamRejected = errors.New("upstream rejected")
	// ErrTransientIO covers timeouts and network failures.
	ErrTransientIO = errors.New("transient io failure")
	// ErrConfigurationGap means the schedule cannot be served, e.g. no eligible account.
	ErrConfigurationGap = errors.New("configuration gap")
)

type FailureKind string

const (
	FailureNone          FailureKind = ""
	FailureToken         FailureKind = "token_unavailable"
	FailureUpstream      FailureKind = "upstream_rejected"
	FailureTransient     FailureKind = "transient_io"
	FailureConfiguration FailureKind = "configuration_gap"
	FailureUnclassified  FailureKind = "unclassified"
)

// KindOf classifies err against the sentinel errors above.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrTokenUnavailable):
		return FailureToken
	case errors.Is(err, ErrUpstreamRejected):
		return FailureUpstream
	case errors.Is(err, ErrTransientIO):
		return FailureTransient
	case errors.Is(err, ErrConfigurationGap):
		return FailureConfiguration
	default:
		return FailureUnclassified
	}
}
