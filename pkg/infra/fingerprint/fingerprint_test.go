package fingerprint_test

import (
	"testing"

	"github.com/campusgate/campusgate/pkg/infra/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterministic(t *testing.T) {
	a, err := fingerprint.Hash("203.0.113.7")
	require.NoError(t, err)
	b, err := fingerprint.Hash("203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashTrimsWhitespace(t *testing.T) {
	a, err := fingerprint.Hash("203.0.113.7")
	require.NoError(t, err)
	b, err := fingerprint.Hash("  203.0.113.7 ")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashDistinctAddresses(t *testing.T) {
	a, err := fingerprint.Hash("203.0.113.7")
	require.NoError(t, err)
	b, err := fingerprint.Hash("203.0.113.8")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashIPv6(t *testing.T) {
	fp, err := fingerprint.Hash("2001:db8::1")
	require.NoError(t, err)
	assert.Len(t, fp, 64)
}

func TestHashRejectsInvalid(t *testing.T) {
	cases := []string{"", "   ", "not-an-ip", "999.999.999.999", "203.0.113.7:8080"}
	for _, raw := range cases {
		_, err := fingerprint.Hash(raw)
		assert.ErrorIs(t, err, fingerprint.ErrInvalidAddress, "input %q", raw)
	}
}
