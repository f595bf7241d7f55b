package biom

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// The binary encoding is a self-identifying envelope: an 8-byte signature
// (mirroring the HDF5 convention of a high-bit byte plus line-ending bytes
// that catch text-mode corruption), a version byte, then the gzip-compressed
// JSON document.
var magic = [8]byte{0x89, 'E', 'X', 'B', '\r', '\n', 0x1a, '\n'}

const binaryVersion = 1

// ErrNotBinary reports that a stream does not start with the binary
// envelope signature.
var ErrNotBinary = errors.New("biom: not a binary table")

// WriteBinary writes the compressed binary encoding of the table.
func WriteBinary(t *Table, w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{binaryVersion}); err != nil {
		return err
	}
	zw := gzip.NewWriter(w)
	if err := WriteJSON(t, zw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadBinary parses the compressed binary encoding.
func ReadBinary(r io.Reader) (*Table, error) {
	var header [9]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("biom: reading binary header: %w", err)
	}
	if !bytes.Equal(header[:8], magic[:]) {
		return nil, ErrNotBinary
	}
	if header[8] != binaryVersion {
		return nil, fmt.Errorf("biom: unsupported binary version %d", header[8])
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("biom: opening compressed payload: %w", err)
	}
	defer zr.Close()
	return ReadJSON(zr)
}

// ReadFile loads a biom table from disk, accepting either the binary
// envelope or a bare JSON document; the signature decides.
func ReadFile(path string) (*Table, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var sig [8]byte
	n, err := io.ReadFull(fh, sig[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("biom: reading %s: %w", path, err)
	}
	joined := io.MultiReader(bytes.NewReader(sig[:n]), fh)
	if n == 8 && bytes.Equal(sig[:], magic[:]) {
		t, err := ReadBinary(joined)
		if err != nil {
			return nil, fmt.Errorf("biom: reading %s: %w", path, err)
		}
		return t, nil
	}
	t, err := ReadJSON(joined)
	if err != nil {
		return nil, fmt.Errorf("biom: reading %s: %w", path, err)
	}
	return t, nil
}
