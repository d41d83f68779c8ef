package fsstore

import (
	"bytes"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
)

// Compression schemes accepted in the store config.
const (
	CompressNone = "none"
	CompressGZIP = "gzip"
	CompressLZW  = "lzw"
)

// codecs pairs each compressing scheme with its writer and reader constructors.
var codecs = map[string]struct {
	writer func(io.Writer) io.WriteCloser
	reader func(io.Reader) (io.ReadCloser, error)
}{
	CompressGZIP: {
		writer: func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		reader: func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) },
	},
	CompressLZW: {
		writer: func(w io.Writer) io.WriteCloser { return lzw.NewWriter(w, lzw.LSB, 8) },
		reader: func(r io.Reader) (io.ReadCloser, error) { return lzw.NewReader(r, lzw.LSB, 8), nil },
	},
}

// normalizeCompression maps the empty string to CompressNone and rejects
// unknown schemes.
func normalizeCompression(scheme string) (string, error) {
	if scheme == "" || scheme == CompressNone {
		return CompressNone, nil
	}
	if _, ok := codecs[scheme]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCompression, scheme)
	}
	return scheme, nil
}

// Compress compresses data using the named scheme.
func Compress(data []byte, scheme string) ([]byte, error) {
	if scheme == "" || scheme == CompressNone {
		return data, nil
	}
	c, ok := codecs[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, scheme)
	}

	var buf bytes.Buffer
	w := c.writer(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte, scheme string) ([]byte, error) {
	if scheme == "" || scheme == CompressNone {
		return data, nil
	}
	c, ok := codecs[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCompression, scheme)
	}

	r, err := c.reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
