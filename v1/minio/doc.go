// Package minio is the S3-compatible object store client behind the store
// package's object backend.
//
// A MinioClient is bound to one bucket. NewClient validates the connection
// and ensures the bucket exists, creating it when
// ConnectionConfig.AccessBucketCreation is set. With FXModule a background
// monitor checks the connection every few seconds and swaps in a fresh client
// when it fails.
//
// S3 error responses are translated to ErrObjectNotFound, ErrBucketNotFound
// and ErrAccessDenied; use IsNotFound to test for missing objects.
package minio
