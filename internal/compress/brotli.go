package compress

import (
	"bytes"

	"github.com/andybalholm/brotli"
)

type Brotli struct {
}

func NewBrotli() Brotli {
	return Brotli{}
}

func (b Brotli) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (b Brotli) Decode(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
