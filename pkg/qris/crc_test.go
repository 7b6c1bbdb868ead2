package qris

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum_KnownVector(t *testing.T) {
	// standard CRC-16/CCITT-FALSE check value
	require.Equal(t, "29B1", Checksum("123456789"))
}

func TestChecksum_Deterministic(t *testing.T) {
	payload := "00020101021158020ID5904ACME"
	first := Checksum(payload)
	require.Len(t, first, 4)
	require.Equal(t, first, Checksum(payload))
}

func TestChecksum_SingleCharChangeAltersResult(t *testing.T) {
	require.NotEqual(t, Checksum("payload-a"), Checksum("payload-b"))
}

func TestChecksum_EmptyPayload(t *testing.T) {
	require.Equal(t, "FFFF", Checksum(""))
}
