package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"google.golang.org/protobuf/encoding/protowire"
)

// appendFrame appends the header for a record of n bytes.
func appendFrame(b []byte, cfg Config, n int) []byte {
	if cfg.FieldNumber > 0 {
		b = protowire.AppendTag(b, protowire.Number(cfg.FieldNumber), protowire.BytesType)
	}
	return protowire.AppendVarint(b, uint64(n))
}

// countingReader tracks how many bytes have been consumed from r.
// protowire only parses complete buffers, so headers are read byte by byte.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// frameReader splits a stream into record payloads. The returned slices are
// reused by the next call.
type frameReader struct {
	r        countingReader
	size     int64
	cfg      Config
	typeName string
	buf      []byte
	index    int
}

func newFrameReader(r io.Reader, size int64, cfg Config, typeName string) *frameReader {
	return &frameReader{
		r:        countingReader{r: bufio.NewReader(r)},
		size:     size,
		cfg:      cfg,
		typeName: typeName,
	}
}

// next returns the payload of the next record, or io.EOF when the stream has
// ended between records.
func (f *frameReader) next() ([]byte, error) {
	if f.cfg.MinRecordSize > 0 && f.size >= 0 && f.size-f.r.n < int64(f.cfg.MinRecordSize) {
		return nil, io.EOF
	}

	first := true
	if f.cfg.FieldNumber > 0 {
		key, read, err := f.readVarint()
		if err != nil {
			return nil, f.headerError(err, first && read == 0)
		}
		first = false
		num, typ := protowire.DecodeTag(key)
		if num != protowire.Number(f.cfg.FieldNumber) || typ != protowire.BytesType {
			return nil, fmt.Errorf("record %d: key is field %d wire type %d: %w", f.index, num, typ, ErrInvalidFrameHeader)
		}
	}

	length, read, err := f.readVarint()
	if err != nil {
		return nil, f.headerError(err, first && read == 0)
	}
	if length > uint64(f.cfg.MaxRecordSize) {
		return nil, fmt.Errorf("record %d is %d bytes: %w", f.index, length, ErrFrameTooLarge)
	}

	if cap(f.buf) < int(length) {
		f.buf = make([]byte, length)
	}
	f.buf = f.buf[:length]
	if _, err := io.ReadFull(&f.r, f.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, f.truncated()
		}
		return nil, fmt.Errorf("stream: read record %d: %w", f.index, err)
	}
	f.index++
	return f.buf, nil
}

// readVarint reads one base-128 varint and returns it with the number of
// bytes consumed.
func (f *frameReader) readVarint() (uint64, int, error) {
	var tmp [binary.MaxVarintLen64]byte
	for i := range tmp {
		b, err := f.r.ReadByte()
		if err != nil {
			return 0, i, err
		}
		tmp[i] = b
		if b < 0x80 {
			v, n := protowire.ConsumeVarint(tmp[:i+1])
			if n < 0 {
				return 0, i + 1, fmt.Errorf("%w: %v", ErrInvalidFrameHeader, protowire.ParseError(n))
			}
			return v, n, nil
		}
	}
	return 0, len(tmp), ErrInvalidFrameHeader
}

// headerError classifies a failure reading the record header. An EOF before
// the first header byte ends the stream.
func (f *frameReader) headerError(err error, clean bool) error {
	switch {
	case errors.Is(err, io.EOF) && clean:
		return io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return f.truncated()
	case errors.Is(err, ErrInvalidFrameHeader):
		return fmt.Errorf("record %d: %w", f.index, err)
	}
	return fmt.Errorf("stream: read record %d header: %w", f.index, err)
}

func (f *frameReader) truncated() error {
	return fmt.Errorf("record %d: %w", f.index, &codec.UnexpectedEndOfDataError{Type: f.typeName})
}
