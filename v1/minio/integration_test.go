package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/admcodec/v1/observability"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

// createMinIOContainer starts a MinIO server and returns its host and port.
func createMinIOContainer(t *testing.T) (string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}
	ctx := context.Background()

	port, err := getFreePort()
	require.NoError(t, err)
	portStr := fmt.Sprintf("%d", port)

	req := testcontainers.ContainerRequest{
		Image: "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		Cmd:   []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ACCESS_KEY": "minio_admin",
			"MINIO_SECRET_KEY": "minio_admin",
		},
		ExposedPorts: []string{"9000/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = nat.PortMap{
				"9000/tcp": []nat.PortBinding{{HostPort: portStr}},
			}
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9000/tcp").WithStartupTimeout(20*time.Second),
			wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(20*time.Second),
		),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	return host, portStr
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func containerConfig(host, port, bucket string) Config {
	return Config{
		Connection: ConnectionConfig{
			Endpoint:             fmt.Sprintf("%s:%s", host, port),
			AccessKeyID:          "minio_admin",
			SecretAccessKey:      "minio_admin",
			BucketName:           bucket,
			Region:               "us-east-1",
			AccessBucketCreation: true,
		},
		Download: DownloadConfig{SmallObjectThreshold: 16},
	}
}

type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ctx.Operation)
}

func TestObjectLifecycle(t *testing.T) {
	host, port := createMinIOContainer(t)
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().InfoWithContext(gomock.Any(), "Bucket does not exist, creating it", nil, gomock.Any()).Times(1)
	log.EXPECT().InfoWithContext(gomock.Any(), "Successfully created bucket", nil, gomock.Any()).Times(1)
	log.EXPECT().InfoWithContext(gomock.Any(), "closing minio client", nil, gomock.Any()).Times(1)

	client, err := newClient(containerConfig(host, port, "records"), log)
	require.NoError(t, err)
	defer client.GracefulShutdown()
	rec := &opRecorder{}
	client.WithObserver(rec)

	small := []byte("tiny")
	large := bytes.Repeat([]byte("spatial-record"), 1000)

	n, err := client.Put(ctx, "a/small.bin", bytes.NewReader(small), int64(len(small)), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, int64(len(small)), n)
	_, err = client.Put(ctx, "a/large.bin", bytes.NewReader(large), -1, "")
	require.NoError(t, err)

	got, err := client.Get(ctx, "a/small.bin")
	require.NoError(t, err)
	assert.Equal(t, small, got)
	got, err = client.Get(ctx, "a/large.bin")
	require.NoError(t, err)
	assert.Equal(t, large, got)

	rc, size, err := client.Open(ctx, "a/large.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(large)), size)
	streamed, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, large, streamed)

	info, err := client.Stat(ctx, "a/small.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(small)), info.Size)
	assert.Equal(t, "application/octet-stream", info.ContentType)

	require.NoError(t, client.Delete(ctx, "a/small.bin"))
	_, err = client.Get(ctx, "a/small.bin")
	assert.True(t, IsNotFound(err), "got %v", err)
	_, _, err = client.Open(ctx, "missing.bin")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Equal(t, "put put get get open stat delete get open", strings.Join(rec.ops, " "))
}

func TestMissingBucketWithoutCreation(t *testing.T) {
	host, port := createMinIOContainer(t)

	cfg := containerConfig(host, port, "absent")
	cfg.Connection.AccessBucketCreation = false
	_, err := NewClient(cfg)
	assert.ErrorIs(t, err, ErrBucketNotFound)
}

func TestFXModuleLifecycle(t *testing.T) {
	host, port := createMinIOContainer(t)

	var client *MinioClient
	app := fxtest.New(t,
		fx.Supply(containerConfig(host, port, "fx-bucket")),
		FXModule,
		fx.Populate(&client),
	)
	app.RequireStart()
	require.NotNil(t, client)
	assert.Equal(t, "fx-bucket", client.Bucket())
	app.RequireStop()
}
