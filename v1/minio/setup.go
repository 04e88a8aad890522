package minio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client with connection monitoring, reconnection
// and a download buffer pool, scoped to one bucket.
type MinioClient struct {
	// client is swapped atomically on reconnection.
	client atomic.Pointer[minio.Client]

	cfg      Config
	observer observability.Observer
	logger   Logger

	shutdownSignal  chan struct{}
	reconnectSignal chan error
	bufferPool      *BufferPool

	closeShutdownOnce sync.Once
	background        sync.WaitGroup
}

// NewClient creates a client, validates the connection and ensures the
// configured bucket exists, creating it when AccessBucketCreation is set.
//
// Example:
//
//	client, err := minio.NewClient(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to initialize MinIO client: %w", err)
//	}
//	client = client.WithLogger(log).WithObserver(m)
//	defer client.GracefulShutdown()
func NewClient(config Config) (*MinioClient, error) {
	return newClient(config, nil)
}

func newClient(config Config, logger Logger) (*MinioClient, error) {
	if config.Connection.BucketName == "" {
		return nil, ErrEmptyBucket
	}
	if config.Download.SmallObjectThreshold <= 0 {
		config.Download.SmallObjectThreshold = DefaultSmallObjectThreshold
	}
	client, err := connectToMinio(config)
	if err != nil {
		return nil, err
	}

	m := &MinioClient{
		cfg:             config,
		logger:          logger,
		shutdownSignal:  make(chan struct{}),
		reconnectSignal: make(chan error, 1),
		bufferPool:      NewBufferPool(),
	}
	m.client.Store(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.validateConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if err := m.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// StartMonitoring runs the health check and reconnection loops in the
// background until GracefulShutdown is called or ctx ends.
func (m *MinioClient) StartMonitoring(ctx context.Context) {
	m.background.Add(2)
	go func() {
		defer m.background.Done()
		m.monitorConnection(ctx)
	}()
	go func() {
		defer m.background.Done()
		m.retryConnection(ctx)
	}()
}

// GracefulShutdown stops the background loops and waits for them to exit.
// It is safe to call more than once.
func (m *MinioClient) GracefulShutdown() {
	m.closeShutdownOnce.Do(func() {
		m.logInfo(context.Background(), "closing minio client", nil)
		close(m.shutdownSignal)
	})
	m.background.Wait()
}

// monitorConnection periodically validates the connection and signals the
// retry loop when it fails.
func (m *MinioClient) monitorConnection(ctx context.Context) {
	ticker := time.NewTicker(connectionHealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := m.validateConnection(checkCtx)
			cancel()
			if err != nil {
				m.logError(ctx, "MinIO connection health check failed", err, map[string]interface{}{
					"endpoint": m.cfg.Connection.Endpoint,
				})
				select {
				case m.reconnectSignal <- err:
				default:
				}
			}
		case <-m.shutdownSignal:
			return
		case <-ctx.Done():
			return
		}
	}
}

// retryConnection reconnects after each failure reported by the monitor,
// retrying every second until a new client validates.
func (m *MinioClient) retryConnection(ctx context.Context) {
	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo(ctx, "Stopping MinIO connection retry loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case err := <-m.reconnectSignal:
			m.logWarn(ctx, "MinIO connection issue detected, attempting reconnection", err, map[string]interface{}{
				"endpoint": m.cfg.Connection.Endpoint,
			})
			for !m.reconnect(ctx) {
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (m *MinioClient) reconnect(ctx context.Context) bool {
	newClient, err := connectToMinio(m.cfg)
	if err != nil {
		m.logError(ctx, "MinIO reconnection failed", err, map[string]interface{}{"will_retry_in": "1s"})
		return false
	}

	checkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := newClient.BucketExists(checkCtx, m.cfg.Connection.BucketName); err != nil {
		m.logError(ctx, "MinIO connection validation failed", err, nil)
		return false
	}

	m.client.Store(newClient)
	m.logInfo(ctx, "Successfully reconnected to MinIO", map[string]interface{}{
		"endpoint": m.cfg.Connection.Endpoint,
		"bucket":   m.cfg.Connection.BucketName,
	})
	return true
}

func connectToMinio(cfg Config) (*minio.Client, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	return minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
}

// validateConnection checks the configured bucket, which needs no
// ListAllMyBuckets permission.
func (m *MinioClient) validateConnection(ctx context.Context) error {
	if m.cfg.Connection.BucketName == "" {
		return ErrEmptyBucket
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c := m.client.Load()
	if c == nil {
		return ErrConnectionFailed
	}
	_, err := c.BucketExists(ctx, m.cfg.Connection.BucketName)
	return err
}

func (m *MinioClient) ensureBucketExists(ctx context.Context) error {
	bucketName := m.cfg.Connection.BucketName
	c := m.client.Load()

	exists, err := c.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if !m.cfg.Connection.AccessBucketCreation {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketName)
	}

	m.logInfo(ctx, "Bucket does not exist, creating it", map[string]interface{}{
		"bucket": bucketName,
		"region": m.cfg.Connection.Region,
	})
	if err := c.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: m.cfg.Connection.Region}); err != nil {
		return fmt.Errorf("minio: create bucket %s: %w", bucketName, err)
	}
	m.logInfo(ctx, "Successfully created bucket", map[string]interface{}{"bucket": bucketName})
	return nil
}

// Bucket returns the configured bucket name.
func (m *MinioClient) Bucket() string { return m.cfg.Connection.BucketName }

// BufferPoolStats returns the download buffer pool counters.
func (m *MinioClient) BufferPoolStats() BufferPoolStats { return m.bufferPool.Stats() }

// WithObserver attaches an observer notified of every object operation.
func (m *MinioClient) WithObserver(observer observability.Observer) *MinioClient {
	m.observer = observer
	return m
}

// WithLogger attaches a logger for lifecycle and connection events.
func (m *MinioClient) WithLogger(logger Logger) *MinioClient {
	m.logger = logger
	return m
}

func (m *MinioClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (m *MinioClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (m *MinioClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
