package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	require.NoError(t, err)

	_, err = Acquire(dir)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	again, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestRelease_Nil(t *testing.T) {
	var l *RunLock
	assert.NoError(t, l.Release())
}
