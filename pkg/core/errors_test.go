package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportErrorMatching(t *testing.T) {
	err := fmt.Errorf("fetching: %w", &TransportError{
		RegionID: "US",
		URL:      "http://google.com",
		Timeout:  true,
		Err:      context.DeadlineExceeded,
	})

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrMalformedPayload)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, "US", te.RegionID)
	assert.Contains(t, err.Error(), "timed out")
}

func TestTransportErrorMessages(t *testing.T) {
	status := &TransportError{RegionID: "UK", StatusCode: 503}
	assert.Equal(t, "region UK: HTTP 503", status.Error())

	other := &TransportError{RegionID: "FR", Err: errors.New("connection refused")}
	assert.Equal(t, "region FR: connection refused", other.Error())
}

func TestOutcome(t *testing.T) {
	assert.True(t, Success([]byte("x")).OK())
	assert.False(t, Failure(errors.New("boom")).OK())
}
