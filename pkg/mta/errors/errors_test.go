package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsUnwrapsWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("decode p2p info: %w", ErrCrypto)
	require.True(t, Is(wrapped, ErrCrypto))
	require.False(t, Is(wrapped, ErrTimeout))
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{ErrWireFormat, ErrProtocolViolation, ErrTransport, ErrCrypto, ErrUserRefuse, ErrTimeout}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			require.False(t, Is(a, b), "%v should not satisfy errors.Is for %v", a, b)
		}
	}
}
