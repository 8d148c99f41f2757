// Package sniffer identifies avatar images by their leading bytes. The
// declared Content-Type of an upload is only cross-checked, never trusted.
package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
)

// HeadSize is how many bytes Detect reads before deciding.
const HeadSize = 512

var (
	ErrUnknownType  = errors.New("unsupported image type")
	ErrTypeMismatch = errors.New("declared content type does not match file contents")
)

type Result struct {
	Type MediaType
	MIME string
}

// Ext is the file extension used for stored objects.
func (r Result) Ext() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

type signature struct {
	result Result
	match  func(head []byte) bool
}

var signatures = []signature{
	{Result{TypeJPEG, "image/jpeg"}, isJPEG},
	{Result{TypePNG, "image/png"}, isPNG},
	{Result{TypeGIF, "image/gif"}, isGIF},
	{Result{TypeWEBP, "image/webp"}, isWEBP},
}

// Detect reads up to HeadSize bytes from r and classifies them. The bytes
// consumed are returned so the caller can replay them in front of r.
func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, HeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// CheckDeclared compares the sniffed type with a declared Content-Type.
// Missing and generic declarations are accepted.
func CheckDeclared(result Result, declared string) error {
	switch declared {
	case "", "application/octet-stream":
		return nil
	}
	if declared == result.MIME || (result.Type == TypeJPEG && declared == "image/jpg") {
		return nil
	}
	return ErrTypeMismatch
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, pngMagic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// MimeTypeFromHTTP returns the media type of a multipart part header,
// without parameters.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
