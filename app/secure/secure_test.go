package secure

import (
	"encoding/base64"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test-secret"

func TestRoundTrip(t *testing.T) {
	c, err := NewCipher(testSecret)
	require.NoError(t, err)

	messages := []string{
		"",
		"Can we add a museum on day 2?",
		"Café crème à Montmartre ☕ — 東京タワー 🗼",
		string([]rune{0x1F600, 0x0000, 0x10FFFF}),
	}
	for _, m := range messages {
		enc, err := c.Encrypt(m)
		require.NoError(t, err)
		assert.NotContains(t, enc, "museum")

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, m, dec)
	}
}

func TestRoundTripProperty(t *testing.T) {
	c, err := NewCipher(testSecret)
	require.NoError(t, err)

	roundTrips := func(m string) bool {
		enc, err := c.Encrypt(m)
		if err != nil {
			return false
		}
		dec, err := c.Decrypt(enc)
		return err == nil && dec == m
	}
	require.NoError(t, quick.Check(roundTrips, &quick.Config{MaxCount: 500}))

	// raw bytes cover strings that are not valid UTF-8
	rawRoundTrips := func(b []byte) bool { return roundTrips(string(b)) }
	require.NoError(t, quick.Check(rawRoundTrips, &quick.Config{MaxCount: 500}))
	assert.True(t, roundTrips(string([]byte{0xff, 0xfe, 0xc3, 0x28, 0xed, 0xa0, 0x80})))
}

func FuzzRoundTrip(f *testing.F) {
	c, err := NewCipher(testSecret)
	require.NoError(f, err)

	f.Add("")
	f.Add("Dinner near the Louvre on day 3?")
	f.Add("東京タワー 🗼")
	f.Add(string([]byte{0xff, 0xfe, 0xfd}))
	f.Fuzz(func(t *testing.T, m string) {
		enc, err := c.Encrypt(m)
		require.NoError(t, err)
		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, m, dec)
	})
}

func TestNonceIsRandom(t *testing.T) {
	c, err := NewCipher(testSecret)
	require.NoError(t, err)

	a, err := c.Encrypt("same text")
	require.NoError(t, err)
	b, err := c.Encrypt("same text")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFailures(t *testing.T) {
	c, err := NewCipher(testSecret)
	require.NoError(t, err)
	other, err := NewCipher("a-completely-different-secret")
	require.NoError(t, err)

	enc, err := c.Encrypt("hello")
	require.NoError(t, err)

	t.Run("different key", func(t *testing.T) {
		_, err := other.Decrypt(enc)
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tampered", func(t *testing.T) {
		raw, _ := base64.StdEncoding.DecodeString(enc)
		raw[len(raw)-1] ^= 0xFF
		_, err := c.Decrypt(base64.StdEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := c.Decrypt("%%%")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestWeakSecret(t *testing.T) {
	_, err := NewCipher("short")
	assert.ErrorIs(t, err, ErrWeakSecret)
}
