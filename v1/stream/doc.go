// Package stream writes and reads unbounded sequences of one record type.
//
// Each record is encoded by a codec.Engine and appended as a block:
//
//	[key][length][record]
//
// key is the protobuf key of Config.FieldNumber with the length-delimited
// wire type, length is a base-128 varint and record is the engine's encoding.
// With FieldNumber 0 the key is omitted. There is no header, terminator or
// record count.
//
// Reading is lazy and forward-only. ReadSequence returns an iter.Seq2; every
// range over it opens the Source, decodes one record per step and closes the
// Source when the loop ends, including when the caller breaks out early:
//
//	for rec, err := range records.ReadSequence(ctx, stream.FileSource(path)) {
//		if err != nil {
//			return err
//		}
//		if done(rec) {
//			break // the file is closed here
//		}
//	}
//
// By default a stream ends at a clean end of data between two blocks and a
// partial block is reported as codec.UnexpectedEndOfDataError. Setting
// Config.MinRecordSize restores the size heuristic of older readers, which
// stop once fewer than that many bytes remain.
package stream
