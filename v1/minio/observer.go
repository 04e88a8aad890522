package minio

import (
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/observability"
)

// observeOperation notifies the observer, if any. The resource is the bucket
// and the sub-resource the object key.
func (m *MinioClient) observeOperation(operation, objectKey string, duration time.Duration, err error, size int64) {
	if m == nil || m.observer == nil {
		return
	}
	m.observer.ObserveOperation(observability.OperationContext{
		Component:   "minio",
		Operation:   operation,
		Resource:    m.cfg.Connection.BucketName,
		SubResource: objectKey,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
