package request

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/solpay/types"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestEncodeURL(t *testing.T) {
	encoded, err := EncodeURL(URLParams{
		Link:    mustParse(t, "https://shop.example.com/api/pay?amount=5&reference=abc"),
		Label:   "Solana Pay Demo",
		Message: "Thanks for buying our tokens!",
	})
	require.NoError(t, err)

	// The link carries its own query, so it is percent-encoded.
	assert.True(t, strings.HasPrefix(encoded, "solana:https%3A%2F%2Fshop.example.com"))
	assert.Contains(t, encoded, "label=Solana+Pay+Demo")
	assert.Contains(t, encoded, "message=Thanks+for+buying+our+tokens%21")

	// A wallet must be able to recover the original link.
	withoutScheme := strings.TrimPrefix(encoded, "solana:")
	linkPart := withoutScheme[:strings.Index(withoutScheme, "?")]
	decoded, err := url.QueryUnescape(linkPart)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api/pay?amount=5&reference=abc", decoded)
}

func TestEncodeURLNoParams(t *testing.T) {
	encoded, err := EncodeURL(URLParams{
		Link: mustParse(t, "https://shop.example.com/api/pay"),
	})
	require.NoError(t, err)
	assert.Equal(t, "solana:https://shop.example.com/api/pay", encoded)
}

func TestEncodeURLInvalidEndpoint(t *testing.T) {
	tests := []struct {
		name string
		link *url.URL
	}{
		{name: "nil link", link: nil},
		{name: "relative", link: mustParse(t, "/api/pay")},
		{name: "http scheme", link: mustParse(t, "http://shop.example.com/api/pay")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeURL(URLParams{Link: tt.link, Label: "x"})
			require.Error(t, err)

			var typed *types.Error
			require.ErrorAs(t, err, &typed)
			assert.Equal(t, types.ErrInvalidEndpoint, typed.Code)
			assert.True(t, typed.CallerFault())
		})
	}
}

func TestNewReference(t *testing.T) {
	first, err := NewReference()
	require.NoError(t, err)
	second, err := NewReference()
	require.NoError(t, err)

	assert.False(t, first.IsZero())
	// References are single use; each generation must be unique.
	assert.False(t, first.Equals(second))
}

func TestQRCodeDataURL(t *testing.T) {
	dataURL, err := QRCodeDataURL("solana:https://shop.example.com/api/pay", 256)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
}
