// Package codec converts document payloads to and from base64 data URLs.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/beesaferoot/rentstore/errdefs"
)

// DefaultMimeType is used when a document carries no MIME type.
const DefaultMimeType = "application/octet-stream"

const (
	scheme       = "data:"
	base64Marker = ";base64"
)

// EncodeDataURL renders data as data:<mimeType>;base64,<payload>.
func EncodeDataURL(mimeType string, data []byte) string {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultMimeType
	}
	return scheme + mimeType + base64Marker + "," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 data URL and returns its MIME type and payload.
// Media type parameters before ";base64" are kept in the returned type.
func DecodeDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, scheme) {
		return "", nil, &errdefs.ImportFormatError{Reason: "data URL must start with data:"}
	}

	header, payload, found := strings.Cut(s[len(scheme):], ",")
	if !found {
		return "", nil, &errdefs.ImportFormatError{Reason: "data URL has no payload separator"}
	}

	mimeType, ok := strings.CutSuffix(header, base64Marker)
	if !ok {
		return "", nil, &errdefs.ImportFormatError{Reason: "data URL is not base64 encoded"}
	}
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &errdefs.ImportFormatError{
			Reason: fmt.Sprintf("data URL payload of type %s is not valid base64", mimeType),
			Err:    err,
		}
	}
	return mimeType, data, nil
}
