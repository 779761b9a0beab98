// Package request produces Solana Pay transaction-request descriptors: a
// scannable `solana:` URL pointing a wallet at the transaction-fetch
// endpoint, plus a fresh single-use reference key per payment.
package request

import (
	"encoding/base64"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/skip2/go-qrcode"

	"github.com/vitwit/solpay/types"
)

// Scheme is the Solana Pay URL scheme.
const Scheme = "solana"

// URLParams describe a transaction-request link. Link must be an absolute
// https endpoint carrying amount and reference as query parameters so the
// wallet's fetch is reproducible.
type URLParams struct {
	Link    *url.URL
	Label   string
	Message string
}

// PaymentRequest is the client-facing descriptor for one payment attempt.
type PaymentRequest struct {
	// Reference is the freshly generated single-use tracking key.
	Reference string `json:"reference"`

	// URL is the encoded solana: transaction-request URL.
	URL string `json:"url"`

	// QRCode is a base64 PNG data URL of the encoded URL.
	QRCode string `json:"qrCode,omitempty"`
}

// EncodeURL builds the canonical transaction-request URL,
// solana:<link>?label=..&message=.. with the link percent-encoded when it
// carries its own query string. Pure construction; no network activity.
func EncodeURL(p URLParams) (string, error) {
	if p.Link == nil || !p.Link.IsAbs() || p.Link.Host == "" {
		return "", &types.Error{
			Code:    types.ErrInvalidEndpoint,
			Message: "endpoint must be an absolute URL with a host",
		}
	}
	if p.Link.Scheme != "https" {
		return "", &types.Error{
			Code:    types.ErrInvalidEndpoint,
			Message: "endpoint must use https",
		}
	}

	link := p.Link.String()
	if p.Link.RawQuery != "" {
		link = url.QueryEscape(link)
	}

	encoded := Scheme + ":" + link

	params := url.Values{}
	if p.Label != "" {
		params.Set("label", p.Label)
	}
	if p.Message != "" {
		params.Set("message", p.Message)
	}
	if q := params.Encode(); q != "" {
		encoded += "?" + q
	}
	return encoded, nil
}

// NewReference generates a fresh keypair and returns its public key. The
// private half is discarded: the reference never holds funds or
// authority, it only has to be unique.
func NewReference() (solana.PublicKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, &types.Error{
			Code:    types.ErrSigningError,
			Message: "failed to generate reference key",
			Err:     err,
		}
	}
	return key.PublicKey(), nil
}

// QRCodeDataURL renders the encoded URL as a PNG data URL suitable for
// direct embedding in an <img> tag.
func QRCodeDataURL(value string, size int) (string, error) {
	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrInvalidEndpoint,
			Message: "failed to create QR code",
			Err:     err,
		}
	}
	png, err := qr.PNG(size)
	if err != nil {
		return "", &types.Error{
			Code:    types.ErrInvalidEndpoint,
			Message: "failed to render QR code",
			Err:     err,
		}
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
