//go:build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/cachestore/storetest"
)

// localstackEndpoint returns LOCALSTACK_ENDPOINT or starts a Localstack container.
func localstackEndpoint(t *testing.T) string {
	t.Helper()

	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		return endpoint
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:3.0",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":       "s3",
				"DEFAULT_REGION": "us-east-1",
			},
			WaitingFor: wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start localstack container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4566")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestConformance(t *testing.T) {
	endpoint := localstackEndpoint(t)

	storetest.RunConformanceSuite(t, func(t *testing.T) cachestore.Store {
		ctx := context.Background()
		bucket := "feedpager-" + uuid.NewString()[:8]

		s, err := NewFromConfig(ctx, Config{
			Bucket:          bucket,
			KeyPrefix:       "pages/",
			Region:          "us-east-1",
			Endpoint:        endpoint,
			UsePathStyle:    true,
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		})
		require.NoError(t, err)

		_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		require.NoError(t, err)

		t.Cleanup(func() {
			_, _ = s.DeleteByPrefix(ctx, "")
			_, _ = s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
		})
		return s
	})
}
