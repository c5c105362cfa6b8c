package workout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalDuration(t *testing.T) {
	open := TimeInterval{Start: at(0)}
	assert.Equal(t, 7*time.Minute, open.Duration(at(7)))

	closed, err := open.Close(at(3))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, closed.Duration(at(60)))
	assert.True(t, open.IsOpen(), "Close must not modify the receiver")
}

func TestIntervalCloseTwice(t *testing.T) {
	closed, err := TimeInterval{Start: at(0)}.Close(at(1))
	require.NoError(t, err)
	_, err = closed.Close(at(2))
	assert.ErrorIs(t, err, ErrIntervalClosed)
}

func TestIntervalCloseBeforeStart(t *testing.T) {
	_, err := TimeInterval{Start: at(5)}.Close(at(4))
	assert.ErrorIs(t, err, ErrIntervalBackwards)
}
