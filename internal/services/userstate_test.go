package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talha7k/qrcode-magic/internal/models"
)

func TestUserStateService(t *testing.T) {
	s := NewUserStateService(quietLogger())

	state, err := s.GetState(42)
	require.NoError(t, err)
	assert.Equal(t, models.Default, state.State)

	require.NoError(t, s.AwaitEntryName(42))
	state, err = s.GetState(42)
	require.NoError(t, err)
	assert.Equal(t, models.AwaitingEntryName, state.State)

	require.NoError(t, s.AwaitResetConfirmation(7))
	state, err = s.GetState(7)
	require.NoError(t, err)
	assert.Equal(t, models.AwaitingConfirmReset, state.State)

	require.NoError(t, s.ClearState(42))
	state, err = s.GetState(42)
	require.NoError(t, err)
	assert.Equal(t, models.Default, state.State)
}
