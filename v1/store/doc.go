// Package store persists ADM values as files or objects.
//
// Every write is atomic: the file backend writes a temporary file next to
// the target and renames it on commit, the object backend streams the value
// into an upload that only completes on commit and is aborted otherwise. A
// reader therefore sees either the previous value or the new one. Neither
// backend holds a whole record stream in memory.
//
//	s, err := store.New(backend, engine, store.DefaultConfig())
//	err = s.Write(ctx, "boundaries/north.bin", boundary)
//	b, err := store.Read[*adm.FieldBoundary](ctx, s, "boundaries/north.bin")
//
// Spatial records are stored as length-prefixed record streams and read
// lazily:
//
//	n, err := s.WriteSpatialRecords(ctx, "ops/7/records.bin", slices.Values(records))
//	for rec, err := range s.ReadSpatialRecords(ctx, "ops/7/records.bin") {
//	    ...
//	}
//
// Paths are slash separated and relative; absolute paths and paths leaving
// the root are rejected with ErrInvalidPath.
package store
