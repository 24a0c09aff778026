package reflector

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsWorkerScope(t *testing.T) {
	inner := errors.New("boom")
	err := NewWorkerError("start", 3, ReasonDriverInitFailed, inner)
	assert.Contains(t, err.Error(), "worker 3")
	assert.Contains(t, err.Error(), "driver_init_failed")
	assert.ErrorIs(t, err, inner)
}

func TestErrorFormatsWithoutWorker(t *testing.T) {
	err := NewError("init", ReasonInterfaceNotFound, nil)
	assert.NotContains(t, err.Error(), "worker")
	assert.Contains(t, err.Error(), "interface_not_found")
}

func TestIsReasonMatchesWrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError("start", ReasonOutOfMemory, nil))
	assert.True(t, IsReason(err, ReasonOutOfMemory))
	assert.False(t, IsReason(err, ReasonDriverInitFailed))
	assert.False(t, IsReason(errors.New("plain"), ReasonOutOfMemory))
}

func TestIsMatchesByReasonOnly(t *testing.T) {
	a := NewWorkerError("start", 0, ReasonDriverInitFailed, errors.New("x"))
	b := NewError("stop", ReasonDriverInitFailed, nil)
	assert.True(t, errors.Is(a, b))
}

func TestErrnoToReasonMapsKnownCodes(t *testing.T) {
	assert.Equal(t, ReasonOutOfMemory, ErrnoToReason(syscall.ENOMEM))
	assert.Equal(t, ReasonInterfaceNotFound, ErrnoToReason(syscall.ENODEV))
	assert.Equal(t, ReasonDriverInitFailed, ErrnoToReason(syscall.EINVAL))
}
