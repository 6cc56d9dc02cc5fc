package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const pdfMagic = "%PDF-"

var (
	// ErrFileNotFound indicates the input path does not name a regular file.
	ErrFileNotFound = errors.New("file not found")
	// ErrEmptyFile indicates the input file has no content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrNotPDF indicates the input does not start with the PDF header.
	ErrNotPDF = errors.New("file doesn't appear to be a valid PDF")
)

// validatePDF checks that path is a non-empty file starting with %PDF- and
// returns its size.
func validatePDF(path string) (int64, error) {
	size, err := regularFileSize(path)
	if err != nil {
		return 0, err
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	header := make([]byte, len(pdfMagic))

	_, err = io.ReadFull(file, header)
	if err != nil || !bytes.Equal(header, []byte(pdfMagic)) {
		return 0, fmt.Errorf("%w: %s", ErrNotPDF, path)
	}

	return size, nil
}

// readTXT checks that path is a non-empty file and returns its bytes.
func readTXT(path string) ([]byte, error) {
	_, err := regularFileSize(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

func regularFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return info.Size(), nil
}

// decodeText returns data as a string, decoding it as ISO-8859-1 when it is
// not valid UTF-8.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode latin-1 text: %w", err)
	}

	return string(decoded), nil
}
