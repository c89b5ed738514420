package compress

// Compress encodes and decodes stored document content.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// ForName returns the codec registered under the given name.
// Unknown or empty names fall back to the nop codec so that records
// written before compression was configured stay readable.
func ForName(name string) Compress {
	switch name {
	case "gzip":
		return NewGZip()
	case "brotli":
		return NewBrotli()
	case "lz4":
		return NewLZ4()
	default:
		return NewNop()
	}
}

// Name reports the registered name of a codec, stored as the
// compression tag alongside a record.
func Name(c Compress) string {
	switch c.(type) {
	case GZip:
		return "gzip"
	case Brotli:
		return "brotli"
	case LZ4:
		return "lz4"
	default:
		return ""
	}
}
