package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"reflect"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
)

// Codec writes and reads unbounded sequences of T as length-prefixed records.
// A Codec holds no per-stream state and may be shared; the sequences and
// writers it returns belong to a single goroutine.
type Codec[T any] struct {
	engine   *codec.Engine
	cfg      Config
	typeName string
	logger   Logger
	observer observability.Observer
}

// New returns a Codec that encodes each record with engine. cfg must pass
// Config.Validate.
//
// Example:
//
//	records, err := stream.New[*adm.SpatialRecord](engine, stream.DefaultConfig())
//	n, err := records.WriteSequence(ctx, f, slices.Values(batch))
func New[T any](engine *codec.Engine, cfg Config) (*Codec[T], error) {
	if engine == nil {
		return nil, errors.New("stream: engine is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize = DefaultMaxRecordSize
	}
	return &Codec[T]{
		engine:   engine,
		cfg:      cfg,
		typeName: reflect.TypeFor[T]().String(),
	}, nil
}

// WithLogger attaches a logger for sequence summaries.
func (c *Codec[T]) WithLogger(l Logger) *Codec[T] {
	c.logger = l
	return c
}

// WithObserver attaches an observer notified when a sequence is written or
// an iteration over one ends.
func (c *Codec[T]) WithObserver(o observability.Observer) *Codec[T] {
	c.observer = o
	return c
}

// Config returns the effective framing configuration.
func (c *Codec[T]) Config() Config { return c.cfg }

// WriteSequence writes every record of records to w and returns how many were
// written. Nothing is written after the last record. On error the records
// already written stay in w.
func (c *Codec[T]) WriteSequence(ctx context.Context, w io.Writer, records iter.Seq[T]) (int, error) {
	start := time.Now()
	bw := bufio.NewWriter(w)
	sw := c.NewWriter(bw)

	var err error
	for rec := range records {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = sw.Write(rec); err != nil {
			break
		}
	}
	if flushErr := bw.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("stream: flush: %w", flushErr)
	}

	c.observe("write_sequence", time.Since(start), err, int64(sw.Count()), sw.Bytes())
	if c.logger != nil {
		c.logger.Debug("record sequence written", err, map[string]interface{}{
			"type":    c.typeName,
			"records": sw.Count(),
			"bytes":   sw.Bytes(),
		})
	}
	return sw.Count(), err
}

// ReadSequence returns a lazy sequence of the records in src. Each range over
// the result opens src, reads one record per step and closes src when the
// loop ends, whether it ran to completion, stopped early or failed.
// A failure is yielded once with a zero record and ends the sequence.
func (c *Codec[T]) ReadSequence(ctx context.Context, src Source) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var (
			zero  T
			count int
			err   error
			start = time.Now()
		)
		defer func() {
			c.observe("read_sequence", time.Since(start), err, int64(count), 0)
		}()

		rc, size, openErr := src.Open(ctx)
		if openErr != nil {
			err = fmt.Errorf("stream: open source: %w", openErr)
			yield(zero, err)
			return
		}
		defer func() {
			if closeErr := rc.Close(); closeErr != nil && c.logger != nil {
				c.logger.Warn("failed to close record source", closeErr, map[string]interface{}{"type": c.typeName})
			}
		}()

		frames := newFrameReader(rc, size, c.cfg, c.typeName)
		for {
			if err = ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			var payload []byte
			payload, err = frames.next()
			if errors.Is(err, io.EOF) {
				err = nil
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			var rec T
			if err = c.engine.Unmarshal(payload, &rec); err != nil {
				err = fmt.Errorf("record %d: %w", count, err)
				yield(zero, err)
				return
			}
			count++
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect reads every record of src into a slice.
func (c *Codec[T]) Collect(ctx context.Context, src Source) ([]T, error) {
	var out []T
	for rec, err := range c.ReadSequence(ctx, src) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Codec[T]) observe(operation string, d time.Duration, err error, records, size int64) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component: "stream",
		Operation: operation,
		Resource:  c.typeName,
		Duration:  d,
		Error:     err,
		Size:      records,
		Metadata:  map[string]interface{}{"bytes": size},
	})
}

// Writer appends records to a stream one at a time. It does not buffer; wrap
// the destination in a bufio.Writer for many small records.
type Writer[T any] struct {
	c     *Codec[T]
	w     io.Writer
	body  []byte
	frame []byte
	count int
	bytes int64
}

// NewWriter returns a Writer appending records to w.
func (c *Codec[T]) NewWriter(w io.Writer) *Writer[T] {
	return &Writer[T]{c: c, w: w}
}

// Write encodes rec and appends it with its header.
func (w *Writer[T]) Write(rec T) error {
	body, err := w.c.engine.AppendMarshal(w.body[:0], rec)
	if err != nil {
		return fmt.Errorf("record %d: %w", w.count, err)
	}
	w.body = body
	if len(body) > w.c.cfg.MaxRecordSize {
		return fmt.Errorf("record %d is %d bytes: %w", w.count, len(body), ErrFrameTooLarge)
	}

	w.frame = appendFrame(w.frame[:0], w.c.cfg, len(body))
	w.frame = append(w.frame, body...)
	if _, err := w.w.Write(w.frame); err != nil {
		return fmt.Errorf("stream: write record %d: %w", w.count, err)
	}
	w.count++
	w.bytes += int64(len(w.frame))
	return nil
}

// Count returns the number of records written.
func (w *Writer[T]) Count() int { return w.count }

// Bytes returns the number of bytes written.
func (w *Writer[T]) Bytes() int64 { return w.bytes }
