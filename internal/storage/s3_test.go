package storage

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/r2gate/internal/domain"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://abc.r2.cloudflarestorage.com", "abc.r2.cloudflarestorage.com"},
		{"http://localhost:9000/", "localhost:9000"},
		{"https://abc.r2.cloudflarestorage.com/bucket/path", "abc.r2.cloudflarestorage.com"},
		{"s3.amazonaws.com", "s3.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEndpoint(tt.in))
		})
	}
}

func TestDetectStorageType(t *testing.T) {
	assert.Equal(t, StorageTypeR2, detectStorageType("https://ACCOUNT.R2.cloudflarestorage.com"))
	assert.Equal(t, StorageTypeS3, detectStorageType("https://s3.eu-west-1.amazonaws.com"))
	assert.Equal(t, StorageTypeS3Compatible, detectStorageType("http://localhost:9000"))
}

func TestResolveRegion(t *testing.T) {
	assert.Equal(t, "auto", resolveRegion(&S3Config{Type: StorageTypeR2}))
	assert.Equal(t, "us-east-1", resolveRegion(&S3Config{Type: StorageTypeS3Compatible}))
	assert.Equal(t, "eu-central-1", resolveRegion(&S3Config{Type: StorageTypeR2, Region: "eu-central-1"}))
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://abc.r2.cloudflarestorage.com",
		endpointURL(&S3Config{Endpoint: "https://abc.r2.cloudflarestorage.com/", UseSSL: true}))
	assert.Equal(t, "http://localhost:9000",
		endpointURL(&S3Config{Endpoint: "localhost:9000"}))
}

func TestIsNotFound(t *testing.T) {
	notFoundResponse := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusNotFound}},
			Err:      errors.New("head object failed"),
		},
	}
	forbiddenResponse := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusForbidden}},
			Err:      errors.New("access denied"),
		},
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found type", &types.NotFound{}, true},
		{"generic NotFound code", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"wrapped NoSuchKey code", fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: "NoSuchKey"}), true},
		{"http 404", notFoundResponse, true},
		{"http 403", forbiddenResponse, false},
		{"access denied code", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify("failed to download object", &types.NoSuchKey{})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	err = classify("failed to download object", errors.New("timeout"))
	assert.NotErrorIs(t, err, domain.ErrObjectNotFound)
	assert.EqualError(t, err, "failed to download object: timeout")
}

func TestClassifyMinIO(t *testing.T) {
	err := classifyMinIO("failed to check object existence", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	err = classifyMinIO("failed to check object existence", minio.ErrorResponse{StatusCode: http.StatusNotFound})
	assert.ErrorIs(t, err, domain.ErrObjectNotFound)

	err = classifyMinIO("failed to check object existence", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden})
	assert.NotErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestNewStorage(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewStorage(&S3Config{Backend: "ftp", Endpoint: "localhost:9000"})
		assert.Error(t, err)
	})

	t.Run("minio backend detects r2", func(t *testing.T) {
		cfg := &S3Config{
			Backend:   BackendMinIO,
			Endpoint:  "https://acct.r2.cloudflarestorage.com",
			AccessKey: "key",
			SecretKey: "secret",
			UseSSL:    true,
			Bucket:    "assets",
		}
		store, err := NewStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, StorageTypeR2, cfg.Type)
		assert.Equal(t, "assets", store.Bucket())
		assert.IsType(t, &MinIOStorage{}, store)
	})

	t.Run("aws backend by default", func(t *testing.T) {
		store, err := NewStorage(&S3Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "key",
			SecretKey: "secret",
			Bucket:    "assets",
		})
		require.NoError(t, err)
		assert.IsType(t, &S3Storage{}, store)
	})
}
