package rterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_OK(t *testing.T) {
	assert.True(t, OK.OK())
	assert.False(t, ERR.OK())
	assert.False(t, TIMEOUT.OK())
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "TIMEOUT", TIMEOUT.String())
	assert.Equal(t, "OK", OK.String())
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := New(TIMEOUT, "deadline reached for thread 3")
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrDeleted))
}

func TestError_UnwrapChain(t *testing.T) {
	cause := errors.New("underlying")
	err := &Error{Code: ERR, Message: "wrapped", Cause: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestFromError(t *testing.T) {
	assert.Equal(t, OK, FromError(nil))
	assert.Equal(t, DELETED, FromError(ErrDeleted))
	assert.Equal(t, ERR, FromError(errors.New("plain")))
}

func TestWrapError(t *testing.T) {
	cause := ErrBusy
	wrapped := WrapError("queue send", cause)
	assert.True(t, errors.Is(wrapped, ErrBusy))
	assert.Contains(t, wrapped.Error(), "queue send")
}
