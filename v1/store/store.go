package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/adm"
	"github.com/Aleph-Alpha/admcodec/v1/codec"
	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/Aleph-Alpha/admcodec/v1/stream"
	"github.com/Aleph-Alpha/admcodec/v1/tracer"
	"golang.org/x/sync/errgroup"
)

// Store writes and reads encoded ADM values through a Backend. It is safe for
// concurrent use.
type Store struct {
	backend  Backend
	engine   *codec.Engine
	cfg      Config
	records  *stream.Codec[*adm.SpatialRecord]
	logger   Logger
	observer observability.Observer
	tracer   *tracer.Tracer
}

// New returns a Store encoding with engine and persisting through backend.
//
// Example:
//
//	backend, _ := store.NewFileBackend("/var/lib/adm")
//	s, err := store.New(backend, engine, store.DefaultConfig())
//	err = s.Write(ctx, "fields/north.bin", boundary)
func New(backend Backend, engine *codec.Engine, cfg Config) (*Store, error) {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	records, err := stream.New[*adm.SpatialRecord](engine, cfg.Records)
	if err != nil {
		return nil, fmt.Errorf("store: records: %w", err)
	}
	return &Store{
		backend: backend,
		engine:  engine,
		cfg:     cfg,
		records: records,
	}, nil
}

// WithLogger attaches a logger.
func (s *Store) WithLogger(l Logger) *Store {
	s.logger = l
	s.records.WithLogger(l)
	return s
}

// WithObserver attaches an observer notified of every store operation and of
// the spatial record sequences it reads and writes.
func (s *Store) WithObserver(o observability.Observer) *Store {
	s.observer = o
	s.records.WithObserver(o)
	return s
}

// WithTracer wraps every operation in a span.
func (s *Store) WithTracer(t *tracer.Tracer) *Store {
	s.tracer = t
	return s
}

// Engine returns the engine values are encoded with.
func (s *Store) Engine() *codec.Engine { return s.engine }

// Backend returns the storage backend.
func (s *Store) Backend() Backend { return s.backend }

// Write encodes v and atomically replaces the value at path.
func (s *Store) Write(ctx context.Context, path string, v any) (err error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "store.write", s.spanAttrs(path))
	var size int
	defer func() {
		s.finish(span, "write", path, start, err, int64(size))
	}()

	data, err := s.engine.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	size = len(data)
	return s.put(ctx, path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Read decodes the value at path into ptr.
func (s *Store) Read(ctx context.Context, path string, ptr any) (err error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "store.read", s.spanAttrs(path))
	var size int
	defer func() {
		s.finish(span, "read", path, start, err, int64(size))
	}()

	rc, _, err := s.backend.Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.closeReader(rc, path)

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	size = len(data)
	if err := s.engine.Unmarshal(data, ptr); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, err)
	}
	return nil
}

// Read decodes the value at path as a T. T may be a Go interface bound to a
// polymorphic base.
func Read[T any](ctx context.Context, s *Store, path string) (T, error) {
	var v T
	err := s.Read(ctx, path, &v)
	return v, err
}

// Delete removes the value at path.
func (s *Store) Delete(ctx context.Context, path string) (err error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "store.delete", s.spanAttrs(path))
	defer func() {
		s.finish(span, "delete", path, start, err, 0)
	}()
	return s.backend.Remove(ctx, path)
}

// WriteBatch writes every value of items under its path, running at most
// Config.Parallelism writes at once. It returns the first error; values
// already committed stay written.
func (s *Store) WriteBatch(ctx context.Context, items map[string]any) error {
	ctx, span := s.tracer.StartSpan(ctx, "store.write_batch", map[string]interface{}{
		"backend": s.backend.Name(),
		"items":   len(items),
	})
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for path, v := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.Write(gctx, path, v)
		})
	}
	err := g.Wait()
	span.RecordError(err)
	return err
}

// WriteSpatialRecords atomically replaces path with a stream of records and
// returns how many were written.
func (s *Store) WriteSpatialRecords(ctx context.Context, path string, records iter.Seq[*adm.SpatialRecord]) (int, error) {
	return WriteRecords(ctx, s, s.records, path, records)
}

// ReadSpatialRecords returns a lazy sequence over the record stream at path.
// The underlying file or object is opened when iteration starts and closed
// when it ends.
func (s *Store) ReadSpatialRecords(ctx context.Context, path string) iter.Seq2[*adm.SpatialRecord, error] {
	return ReadRecords(ctx, s, s.records, path)
}

// WriteRecords atomically replaces path with the records encoded by c.
func WriteRecords[T any](ctx context.Context, s *Store, c *stream.Codec[T], path string, records iter.Seq[T]) (n int, err error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "store.write_records", s.spanAttrs(path))
	defer func() {
		span.SetAttributes(map[string]interface{}{"records": n})
		s.finish(span, "write_records", path, start, err, int64(n))
	}()

	err = s.put(ctx, path, func(w io.Writer) error {
		var werr error
		n, werr = c.WriteSequence(ctx, w, records)
		return werr
	})
	return n, err
}

// ReadRecords returns a lazy sequence over the records at path decoded by c.
func ReadRecords[T any](ctx context.Context, s *Store, c *stream.Codec[T], path string) iter.Seq2[T, error] {
	src := stream.SourceFunc(func(ctx context.Context) (io.ReadCloser, int64, error) {
		return s.backend.Open(ctx, path)
	})
	return func(yield func(T, error) bool) {
		start := time.Now()
		ctx, span := s.tracer.StartSpan(ctx, "store.read_records", s.spanAttrs(path))
		var (
			count int
			err   error
		)
		defer func() {
			span.SetAttributes(map[string]interface{}{"records": count})
			s.finish(span, "read_records", path, start, err, int64(count))
		}()

		for rec, rerr := range c.ReadSequence(ctx, src) {
			if rerr != nil {
				err = rerr
				yield(rec, rerr)
				return
			}
			count++
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// put stages a value at path, lets write fill it and commits, aborting on
// any failure.
func (s *Store) put(ctx context.Context, path string, write func(io.Writer) error) error {
	staged, err := s.backend.Create(ctx, path)
	if err != nil {
		return err
	}
	if err := write(staged); err != nil {
		if abortErr := staged.Abort(); abortErr != nil && s.logger != nil {
			s.logger.Warn("failed to discard staged value", abortErr, map[string]interface{}{"path": path})
		}
		return err
	}
	if err := staged.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit %s: %w", path, err)
	}
	return nil
}

func (s *Store) closeReader(rc io.Closer, path string) {
	if err := rc.Close(); err != nil && s.logger != nil {
		s.logger.Warn("failed to close reader", err, map[string]interface{}{"path": path})
	}
}

func (s *Store) spanAttrs(path string) map[string]interface{} {
	return map[string]interface{}{"path": path, "backend": s.backend.Name()}
}

func (s *Store) finish(span tracer.Span, operation, path string, start time.Time, err error, size int64) {
	span.RecordError(err)
	span.End()

	if s.logger != nil && err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("store operation failed", err, map[string]interface{}{
			"operation": operation,
			"path":      path,
			"backend":   s.backend.Name(),
		})
	}
	if s.observer != nil {
		s.observer.ObserveOperation(observability.OperationContext{
			Component:   "store",
			Operation:   operation,
			Resource:    s.backend.Name(),
			SubResource: path,
			Duration:    time.Since(start),
			Error:       err,
			Size:        size,
		})
	}
}
