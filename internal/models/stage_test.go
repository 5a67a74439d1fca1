package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromWire(t *testing.T) {
	cases := []struct {
		raw  string
		want StageStatus
	}{
		{"en_attente", StatusPending},
		{"valide", StatusApproved},
		{"refuse", StatusRejected},
	}
	for _, tc := range cases {
		got, err := StatusFromWire(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}
}

func TestStatusFromWireRejectsUnknown(t *testing.T) {
	_, err := StatusFromWire("mystery")
	require.Error(t, err)

	_, err = StatusFromWire("")
	require.Error(t, err)
}

func TestStatusWireRoundtrip(t *testing.T) {
	for _, status := range []StageStatus{StatusPending, StatusApproved, StatusRejected} {
		back, err := StatusFromWire(status.Wire())
		require.NoError(t, err)
		assert.Equal(t, status, back)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, StageStatus("en_attente").Valid(), "wire vocabulary is not a domain status")
}
