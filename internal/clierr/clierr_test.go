package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(FetchFailed, cause, "querying tasks database")

	assert.Equal(t, "querying tasks database: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, err.ExitCode())
}

func TestHasCode_ThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("run: %w", New(FetchFailed, "boom"))

	assert.True(t, HasCode(err, FetchFailed))
	assert.False(t, HasCode(err, InvalidInput))
	assert.False(t, HasCode(errors.New("plain"), FetchFailed))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, New(InternalError, "x").ExitCode())
	assert.Equal(t, 1, Newf(InvalidBucket, "bad %q", "x").ExitCode())
}
