package encsearch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name     string
		norm     Normalizer
		input    string
		expected string
	}{
		{"lower", NormalizeLower, "Leather Wallet", "leather wallet"},
		{"lower keeps spaces", NormalizeLower, " Leather Wallet ", " leather wallet "},
		{"lower empty", NormalizeLower, "", ""},
		{"keyword", NormalizeKeyword, " LAPTOP ", "laptop"},
		{"keyword apostrophe", NormalizeKeyword, "Men's", "men's"},
		{"trim lower", NormalizeTrimLower, "\tYoga Mat\n", "yoga mat"},
		{"fold", NormalizeFold, "  Running   Shoes ", "running shoes"},
		{"fold tabs", NormalizeFold, "Yoga\t\tMat", "yoga mat"},
		{"none", NormalizeNone, " MiXeD ", " MiXeD "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.norm(tt.input))
		})
	}
}

func TestNormalizers_Idempotent(t *testing.T) {
	inputs := []string{"Running Shoes - SpeedX", "  A  b ", "ÄÖÜ", ""}
	for _, norm := range []Normalizer{NormalizeLower, NormalizeKeyword, NormalizeTrimLower, NormalizeFold, NormalizeNone} {
		for _, in := range inputs {
			once := norm(in)
			require.Equal(t, once, norm(once))
		}
	}
}
