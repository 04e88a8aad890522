package stream

import (
	"bytes"
	"context"
	"io"
	"iter"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/logger"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/Aleph-Alpha/admcodec/v1/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/encoding/protowire"
)

type Reading struct {
	Sensor string
	Value  float64
	Seq    int64
}

func testEngine(t testing.TB) *codec.Engine {
	t.Helper()
	b := schema.NewBuilder()
	require.NoError(t, b.Register("Reading", []schema.FieldBinding{
		{Tag: 1, Name: "Sensor"},
		{Tag: 2, Name: "Value"},
		{Tag: 3, Name: "Seq"},
	}, ""))
	require.NoError(t, b.Bind("Reading", reflect.TypeFor[Reading]()))
	reg, err := b.Build()
	require.NoError(t, err)
	e, err := codec.NewEngine(reg, codec.DefaultConfig())
	require.NoError(t, err)
	return e
}

func newCodec[T any](t testing.TB, e *codec.Engine, cfg Config) *Codec[T] {
	t.Helper()
	c, err := New[T](e, cfg)
	require.NoError(t, err)
	return c
}

func readings(n int) []*Reading {
	out := make([]*Reading, n)
	for i := range out {
		out[i] = &Reading{Sensor: "yield", Value: float64(i) / 2, Seq: int64(i)}
	}
	return out
}

func encode[T any](t testing.TB, c *Codec[T], records []T) []byte {
	t.Helper()
	var buf bytes.Buffer
	n, err := c.WriteSequence(context.Background(), &buf, slices.Values(records))
	require.NoError(t, err)
	require.Equal(t, len(records), n)
	return buf.Bytes()
}

// trackingSource counts how often it is opened and closed.
type trackingSource struct {
	data   []byte
	opened int
	closed int
}

type trackingReader struct {
	io.Reader
	src *trackingSource
}

func (r *trackingReader) Close() error {
	r.src.closed++
	return nil
}

func (s *trackingSource) Open(context.Context) (io.ReadCloser, int64, error) {
	s.opened++
	return &trackingReader{Reader: bytes.NewReader(s.data), src: s}, int64(len(s.data)), nil
}

func TestRoundTripPreservesOrderAndCount(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	want := readings(250)

	got, err := c.Collect(context.Background(), BytesSource(encode(t, c, want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValueRecords(t *testing.T) {
	c := newCodec[Reading](t, testEngine(t), DefaultConfig())
	want := []Reading{{Sensor: "a"}, {Seq: -3}, {Value: 1.25}}

	got, err := c.Collect(context.Background(), BytesSource(encode(t, c, want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEmptySequence(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())

	data := encode(t, c, nil)
	assert.Empty(t, data)

	src := &trackingSource{data: data}
	for range c.ReadSequence(context.Background(), src) {
		t.Fatal("empty stream yielded a record")
	}
	assert.Equal(t, 1, src.opened)
	assert.Equal(t, 1, src.closed)
}

func TestAbandonedIterationClosesSource(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	src := &trackingSource{data: encode(t, c, readings(1000))}

	var got []*Reading
	for rec, err := range c.ReadSequence(context.Background(), src) {
		require.NoError(t, err)
		got = append(got, rec)
		if len(got) == 10 {
			break
		}
	}

	assert.Len(t, got, 10)
	assert.Equal(t, int64(9), got[9].Seq)
	assert.Equal(t, 1, src.opened)
	assert.Equal(t, 1, src.closed)
}

func TestSequenceIsRestartable(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	src := &trackingSource{data: encode(t, c, readings(5))}
	seq := c.ReadSequence(context.Background(), src)

	first := collect(t, seq)
	second := collect(t, seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 5)
	assert.Equal(t, 2, src.opened)
	assert.Equal(t, 2, src.closed)
}

func collect[T any](t *testing.T, seq iter.Seq2[T, error]) []T {
	t.Helper()
	var out []T
	for rec, err := range seq {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestKeyedFraming(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	data := encode(t, c, []*Reading{{Seq: 1}})

	// key for field 1 length-delimited, length 2, Seq
	assert.Equal(t, []byte{0x0a, 0x02, 0x18, 0x01}, data)
}

func TestUnkeyedFraming(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), Config{})
	data := encode(t, c, []*Reading{{Seq: 1}, {Seq: 2}})
	assert.Equal(t, []byte{0x02, 0x18, 0x01, 0x02, 0x18, 0x02}, data)

	got, err := c.Collect(context.Background(), BytesSource(data))
	require.NoError(t, err)
	assert.Equal(t, []*Reading{{Seq: 1}, {Seq: 2}}, got)
}

func TestTruncatedStream(t *testing.T) {
	e := testEngine(t)
	long := strings.Repeat("s", 40)
	records := []*Reading{{Sensor: long}, {Sensor: long}, {Sensor: long}}
	data := encode(t, newCodec[*Reading](t, e, DefaultConfig()), records)
	require.Len(t, data, 3*44)

	t.Run("exact end of data reports partial records", func(t *testing.T) {
		c := newCodec[*Reading](t, e, DefaultConfig())
		for _, cut := range []int{1, 5, 30, 43} {
			got, err := c.Collect(context.Background(), BytesSource(data[:len(data)-cut]))
			require.Error(t, err, "cut %d", cut)
			assert.ErrorIs(t, err, codec.ErrUnexpectedEndOfData)
			assert.True(t, codec.IsTruncated(err))
			assert.Len(t, got, 2)
		}
	})

	t.Run("size heuristic reads a large partial record", func(t *testing.T) {
		c := newCodec[*Reading](t, e, Config{FieldNumber: 1, MinRecordSize: LegacyMinRecordSize})
		got, err := c.Collect(context.Background(), BytesSource(data[:len(data)-5]))
		assert.ErrorIs(t, err, codec.ErrUnexpectedEndOfData)
		assert.Len(t, got, 2)
	})

	t.Run("size heuristic ignores a small tail", func(t *testing.T) {
		c := newCodec[*Reading](t, e, Config{FieldNumber: 1, MinRecordSize: LegacyMinRecordSize})
		got, err := c.Collect(context.Background(), BytesSource(data[:len(data)-30]))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestSizeHeuristicDropsSmallRecords(t *testing.T) {
	e := testEngine(t)
	small := []*Reading{{Seq: 1}, {Seq: 2}, {Seq: 3}}
	data := encode(t, newCodec[*Reading](t, e, DefaultConfig()), small)
	require.Len(t, data, 12)

	exact, err := newCodec[*Reading](t, e, DefaultConfig()).Collect(context.Background(), BytesSource(data))
	require.NoError(t, err)
	assert.Equal(t, small, exact)

	legacy, err := newCodec[*Reading](t, e, Config{FieldNumber: 1, MinRecordSize: LegacyMinRecordSize}).
		Collect(context.Background(), BytesSource(data))
	require.NoError(t, err)
	assert.Empty(t, legacy)
}

func TestTrailingGarbage(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	data := encode(t, c, readings(3))

	t.Run("bad key", func(t *testing.T) {
		got, err := c.Collect(context.Background(), BytesSource(append(slices.Clone(data), 0x7f)))
		assert.ErrorIs(t, err, ErrInvalidFrameHeader)
		assert.Len(t, got, 3)
	})

	t.Run("dangling header", func(t *testing.T) {
		got, err := c.Collect(context.Background(), BytesSource(append(slices.Clone(data), 0x0a, 0x05, 0x01)))
		assert.ErrorIs(t, err, codec.ErrUnexpectedEndOfData)
		assert.Len(t, got, 3)
	})

	t.Run("key without length", func(t *testing.T) {
		_, err := c.Collect(context.Background(), BytesSource(append(slices.Clone(data), 0x0a)))
		assert.ErrorIs(t, err, codec.ErrUnexpectedEndOfData)
	})

	t.Run("overlong varint", func(t *testing.T) {
		garbage := append(slices.Clone(data), 0x0a)
		garbage = append(garbage, bytes.Repeat([]byte{0xff}, 10)...)
		_, err := c.Collect(context.Background(), BytesSource(garbage))
		assert.ErrorIs(t, err, ErrInvalidFrameHeader)
	})
}

func TestCorruptRecordEndsSequence(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	data := encode(t, c, readings(2))

	// Sensor with a varint payload
	var body []byte
	body = protowire.AppendTag(body, 1, protowire.VarintType)
	body = protowire.AppendVarint(body, 7)
	data = appendFrame(data, c.Config(), len(body))
	data = append(data, body...)
	data = append(data, encode(t, c, readings(1))...)

	var (
		count int
		errs  []error
	)
	for _, err := range c.ReadSequence(context.Background(), BytesSource(data)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	assert.Equal(t, 2, count)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], codec.ErrSchemaMismatch)
}

func TestFrameSizeLimit(t *testing.T) {
	e := testEngine(t)
	big := []*Reading{{Sensor: strings.Repeat("x", 100)}}

	var buf bytes.Buffer
	n, err := newCodec[*Reading](t, e, Config{FieldNumber: 1, MaxRecordSize: 64}).
		WriteSequence(context.Background(), &buf, slices.Values(big))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Zero(t, n)

	data := encode(t, newCodec[*Reading](t, e, DefaultConfig()), big)
	_, err = newCodec[*Reading](t, e, Config{FieldNumber: 1, MaxRecordSize: 64}).
		Collect(context.Background(), BytesSource(data))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestNilRecordIsRejected(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())

	var buf bytes.Buffer
	n, err := c.WriteSequence(context.Background(), &buf, slices.Values([]*Reading{{Seq: 1}, nil}))
	assert.ErrorIs(t, err, codec.ErrNilValue)
	assert.Equal(t, 1, n)

	got, err := c.Collect(context.Background(), BytesSource(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []*Reading{{Seq: 1}}, got)
}

func TestContextCancellation(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	data := encode(t, c, readings(100))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		count   int
		lastErr error
	)
	for _, err := range c.ReadSequence(ctx, BytesSource(data)) {
		if err != nil {
			lastErr = err
			break
		}
		count++
		if count == 5 {
			cancel()
		}
	}
	assert.Equal(t, 5, count)
	assert.ErrorIs(t, lastErr, context.Canceled)

	_, err := c.WriteSequence(ctx, io.Discard, slices.Values(readings(3)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())
	path := filepath.Join(t.TempDir(), "records.bin")

	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = c.WriteSequence(context.Background(), f, slices.Values(readings(20)))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := c.Collect(context.Background(), FileSource(path))
	require.NoError(t, err)
	assert.Equal(t, readings(20), got)

	_, err = c.Collect(context.Background(), FileSource(filepath.Join(t.TempDir(), "missing.bin")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriterCounts(t *testing.T) {
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig())

	var buf bytes.Buffer
	w := c.NewWriter(&buf)
	for _, r := range readings(4) {
		require.NoError(t, w.Write(r))
	}
	assert.Equal(t, 4, w.Count())
	assert.Equal(t, int64(buf.Len()), w.Bytes())
}

func TestLoggingAndObservation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var ops []observability.OperationContext
	c := newCodec[*Reading](t, testEngine(t), DefaultConfig()).
		WithLogger(logger.NewFromZap(zap.New(core), false)).
		WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
			ops = append(ops, op)
		}))

	data := encode(t, c, readings(30))
	for _, err := range c.ReadSequence(context.Background(), BytesSource(data)) {
		require.NoError(t, err)
		break
	}

	entries := logs.FilterMessage("record sequence written").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(30), entries[0].ContextMap()["records"])

	require.Len(t, ops, 2)
	assert.Equal(t, "write_sequence", ops[0].Operation)
	assert.Equal(t, int64(30), ops[0].Size)
	assert.Equal(t, "read_sequence", ops[1].Operation)
	assert.Equal(t, int64(1), ops[1].Size)
	assert.NoError(t, ops[1].Error)
	assert.Equal(t, "*stream.Reading", ops[1].Resource)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{FieldNumber: -1}.Validate())
	assert.Error(t, Config{FieldNumber: 19000}.Validate())
	assert.Error(t, Config{MinRecordSize: -1}.Validate())
	assert.Error(t, Config{MaxRecordSize: -1}.Validate())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	e := testEngine(t)

	for name, cfg := range map[string]Config{
		"reserved field number": {FieldNumber: 19000},
		"negative field number": {FieldNumber: -1},
		"negative min size":     {FieldNumber: 1, MinRecordSize: -1},
		"negative max size":     {FieldNumber: 1, MaxRecordSize: -1},
	} {
		t.Run(name, func(t *testing.T) {
			c, err := New[*Reading](e, cfg)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}

	_, err := New[*Reading](nil, DefaultConfig())
	assert.Error(t, err)

	c, err := New[*Reading](e, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRecordSize, c.Config().MaxRecordSize)
}
