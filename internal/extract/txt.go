package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Alternate decodings tried after UTF-8, in declared order. ISO-8859-1 is
// the same table as Latin-1; it stays a distinct chain entry so the decode
// order reads the same as the documented capability list.
var (
	charmapLatin1      encoding.Encoding = charmap.ISO8859_1
	charmapWindows1252 encoding.Encoding = charmap.Windows1252
	charmapISO8859_1   encoding.Encoding = charmap.ISO8859_1
)

// extractTXTUTF8 is the primary TXT strategy: strict UTF-8 only.
func extractTXTUTF8(_ context.Context, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", 0, errors.New("invalid utf-8 byte sequence")
	}
	return strings.TrimPrefix(string(data), "﻿"), 0, nil
}

// decodeTXTWith builds a strategy that decodes the file with one fixed
// character map.
func decodeTXTWith(enc encoding.Encoding) func(ctx context.Context, path string) (string, int, error) {
	return func(_ context.Context, path string) (string, int, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", 0, fmt.Errorf("read file: %w", err)
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", 0, fmt.Errorf("decode: %w", err)
		}
		return string(decoded), 0, nil
	}
}

// extractTXTDetect is the last-resort TXT strategy: autodetect the charset,
// then decode with whatever the detector picked.
func extractTXTDetect(_ context.Context, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read file: %w", err)
	}
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", 0, fmt.Errorf("charset detect: %w", err)
	}
	enc, err := htmlindex.Get(strings.ToLower(res.Charset))
	if err != nil {
		return "", 0, fmt.Errorf("charset %s unsupported: %w", res.Charset, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", 0, fmt.Errorf("decode %s: %w", res.Charset, err)
	}
	return string(decoded), 0, nil
}
