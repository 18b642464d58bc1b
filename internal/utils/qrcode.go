package utils

import (
	"errors"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPrefix is the literal first segment of every code this system issues
const QRPrefix = "BLU"

// Type letters selecting what the code references
const (
	typeLetterOrder = "O"
	typeLetterAsset = "A"
)

// CodeKind tags what a parsed code points at
type CodeKind string

const (
	CodeKindOrder CodeKind = "order"
	CodeKindAsset CodeKind = "asset"
)

// ErrMalformedCode means the scanned string does not match BLU-{O|A}-{id}
var ErrMalformedCode = errors.New("malformed code")

// CodeRef is a parsed reference to an order or an asset
type CodeRef struct {
	Kind CodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// ParseQRCode parses a scanned or typed code of the form BLU-{O|A}-{id}.
// Pure function, no I/O. Missing segments, unknown prefix or unknown
// type letter all fail; the caller must not act on a failed parse.
// The id segment may itself contain dashes (uuids do).
func ParseQRCode(code string) (*CodeRef, error) {
	parts := strings.SplitN(strings.TrimSpace(code), "-", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedCode
	}
	if strings.ToUpper(parts[0]) != QRPrefix {
		return nil, ErrMalformedCode
	}
	if parts[2] == "" {
		return nil, ErrMalformedCode
	}

	switch strings.ToUpper(parts[1]) {
	case typeLetterOrder:
		return &CodeRef{Kind: CodeKindOrder, ID: parts[2]}, nil
	case typeLetterAsset:
		return &CodeRef{Kind: CodeKindAsset, ID: parts[2]}, nil
	default:
		return nil, ErrMalformedCode
	}
}

// OrderQRCode builds the code string printed on order paperwork
func OrderQRCode(id string) string {
	return QRPrefix + "-" + typeLetterOrder + "-" + id
}

// AssetQRCode builds the code string printed on equipment labels
func AssetQRCode(id string) string {
	return QRPrefix + "-" + typeLetterAsset + "-" + id
}

// RenderQRPNG renders a code string as a PNG image
func RenderQRPNG(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(code, qrcode.Medium, size)
}
