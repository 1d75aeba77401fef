package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractInt(t *testing.T) {
	require.Equal(t, 1234, ExtractInt("Problems Solved: 1,234"))
	require.Equal(t, 152, ExtractInt(" 152/885 Med. 301/1889"))
	require.Equal(t, 3200, ExtractInt("3.2k followers"))
	require.Equal(t, 1500000, ExtractInt("1.5M users"))
	require.Equal(t, 23, ExtractInt("Contribution: +23"))
	require.Equal(t, 0, ExtractInt("no numbers here"))
	require.Equal(t, 0, ExtractInt(""))
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "alicesmith", NormalizeName("  Alice Smith\n"))
	require.Equal(t, "alice", NormalizeName("ALICE"))
}
