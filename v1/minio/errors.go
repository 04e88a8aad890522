package minio

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

var (
	ErrConnectionFailed = errors.New("minio: connection failed")
	ErrEmptyEndpoint    = errors.New("minio: endpoint cannot be empty")
	ErrEmptyBucket      = errors.New("minio: bucket name is empty")
	ErrBucketNotFound   = errors.New("minio: bucket does not exist")
	ErrObjectNotFound   = errors.New("minio: object not found")
	ErrAccessDenied     = errors.New("minio: access denied")
)

// TranslateError maps S3 error responses onto the package sentinels. Other
// errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %s", ErrObjectNotFound, resp.Key)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrBucketNotFound, resp.BucketName)
	case "AccessDenied":
		return fmt.Errorf("%w: %s", ErrAccessDenied, resp.Message)
	}
	return err
}

// IsNotFound reports whether err means the object or its bucket is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBucketNotFound)
}
