package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrInvalidInput, "bad argument")
	assert.Equal(t, ErrInvalidInput, err.Code)
	assert.Equal(t, "[INVALID_INPUT] bad argument", err.Error())
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("disk on fire")
	err := Wrap(inner, ErrFileWrite, "failed to write hints")
	require.NotNil(t, err)
	assert.Equal(t, "[FILE_WRITE] failed to write hints: disk on fire", err.Error())
	assert.Equal(t, inner, errors.Unwrap(err))

	assert.Nil(t, Wrap(nil, ErrFileWrite, "no-op"))
}

func TestIsErrorCode(t *testing.T) {
	err := Newf(ErrHintsParse, "JSON parse error at line %d", 12)
	assert.True(t, IsErrorCode(err, ErrHintsParse))
	assert.False(t, IsErrorCode(err, ErrFileWrite))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsErrorCode(wrapped, ErrHintsParse))

	assert.False(t, IsErrorCode(fmt.Errorf("plain"), ErrHintsParse))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrOverwriteBlocked, GetErrorCode(New(ErrOverwriteBlocked, "exists")))
	assert.Equal(t, ErrUnknown, GetErrorCode(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrAssetResolve, "unknown asset").
		WithDetail("path", "textures/rock.dds").
		WithDetail("platform", "pc")
	assert.Equal(t, "textures/rock.dds", err.Details["path"])
	assert.Equal(t, "pc", err.Details["platform"])
}
