package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a search phrase is empty or otherwise
	// unacceptable. No round is created.
	ErrInvalidInput = errors.New("invalid search phrase")

	// ErrTransport matches any *TransportError via errors.Is.
	ErrTransport = errors.New("transport error")

	// ErrMalformedPayload is wrapped by parsers when a response cannot be
	// decoded or lacks the expected suggestion structure.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrDuplicateCompletion signals that a region was reported complete
	// twice within the same generation.
	ErrDuplicateCompletion = errors.New("duplicate completion")

	// ErrUnknownRegion is returned for responses naming a region that is not
	// part of the catalog.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrUnknownRound is returned when a generation is no longer (or never
	// was) tracked.
	ErrUnknownRound = errors.New("unknown round")

	// ErrUnknownParser is returned when no parser is registered for a format.
	ErrUnknownParser = errors.New("unknown parser")
)

// TransportError describes a failed request to a single region.
type TransportError struct {
	RegionID   string
	URL        string
	StatusCode int  // 0 when no HTTP response was received
	Timeout    bool // request exceeded its deadline
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("region %s: request timed out: %v", e.RegionID, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("region %s: HTTP %d", e.RegionID, e.StatusCode)
	default:
		return fmt.Sprintf("region %s: %v", e.RegionID, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) true for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
