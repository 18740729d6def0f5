package encsearch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestTokenizer_Deterministic(t *testing.T) {
	tok, err := NewTokenizer(testKey("equality"), NormalizeLower)
	require.NoError(t, err)

	a := tok.Token("Leather Wallet")
	b := tok.Token("Leather Wallet")
	require.Equal(t, a, b)
	require.Regexp(t, hexToken, a)
}

func TestTokenizer_NormalizesInput(t *testing.T) {
	tok, err := NewTokenizer(testKey("equality"), NormalizeLower)
	require.NoError(t, err)

	for _, s := range []string{"Leather Wallet", "LEATHER WALLET", "leather wallet", "lEaThEr WaLlEt"} {
		require.Equal(t, tok.Token(s), tok.Token(NormalizeLower(s)), s)
		require.Equal(t, tok.Token("leather wallet"), tok.Token(s), s)
	}

	// Lowercase-only normalization keeps whitespace and plurals significant
	require.NotEqual(t, tok.Token("leather wallet"), tok.Token("leather wallet "))
	require.NotEqual(t, tok.Token("leather wallet"), tok.Token("leather wallets"))
}

func TestTokenizer_MatchesHMACSHA256(t *testing.T) {
	key := testKey("keyword")
	tok, err := NewTokenizer(key, NormalizeKeyword)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("laptop"))
	require.Equal(t, hex.EncodeToString(mac.Sum(nil)), tok.Token("LAPTOP"))
	require.Len(t, tok.Sum("laptop"), TokenSize)
}

func TestTokenizer_DifferentKeys(t *testing.T) {
	t1, _ := NewTokenizer(testKey("keyword"), NormalizeKeyword)
	t2, _ := NewTokenizer(testKey("equality"), NormalizeKeyword)
	require.NotEqual(t, t1.Token("laptop"), t2.Token("laptop"))
}

func TestTokenizer_DifferentInputs(t *testing.T) {
	tok, _ := NewTokenizer(testKey("keyword"), NormalizeKeyword)
	require.NotEqual(t, tok.Token("laptop"), tok.Token("laptops"))
	require.NotEqual(t, tok.Token(""), tok.Token("a"))
}

func TestTokenizer_NilNormalizer(t *testing.T) {
	tok, err := NewTokenizer(testKey("keyword"), nil)
	require.NoError(t, err)
	require.NotEqual(t, tok.Token("Laptop"), tok.Token("laptop"))
	require.Equal(t, "Laptop", tok.Normalize("Laptop"))
}

func TestTokenizer_InvalidKey(t *testing.T) {
	_, err := NewTokenizer([]byte("short"), NormalizeLower)
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestTokenizer_CopiesKey(t *testing.T) {
	key := testKey("keyword")
	tok, _ := NewTokenizer(key, NormalizeKeyword)
	before := tok.Token("laptop")
	key[0] ^= 0xff
	require.Equal(t, before, tok.Token("laptop"))
}

func TestTokenizer_CloseClearsKey(t *testing.T) {
	tok, err := NewTokenizer(testKey("keyword"), NormalizeLower)
	require.NoError(t, err)
	before := tok.Token("laptop")

	tok.Close()
	require.Equal(t, [KeySize]byte{}, tok.key)
	require.NotEqual(t, before, tok.Token("laptop"))
}
