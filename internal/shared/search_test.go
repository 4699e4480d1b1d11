package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldSearchTurkishCasing(t *testing.T) {
	// Dotted and dotless I must fold the Turkish way, not ASCII.
	require.Equal(t, "sipariş", FoldSearch("SİPARİŞ"))
	require.Equal(t, "ısparta", FoldSearch("ISPARTA"))
	require.Equal(t, "gömlek ütü", FoldSearch("GÖMLEK  ÜTÜ"))
}

func TestFoldSearchCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "a b c", FoldSearch("  a\tb   c "))
	require.Equal(t, "", FoldSearch("   "))
}

func TestSearchTextJoinsFields(t *testing.T) {
	got := SearchText("SIP-100", "TSH-001", "Basic Tişört", "Moda Tekstil")
	require.Equal(t, "sıp-100 tsh-001 basic tişört moda tekstil", got)
}
