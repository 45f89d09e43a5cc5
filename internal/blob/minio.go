// Package blob implements the pipeline's object-store interface on any
// S3-compatible endpoint via the MinIO client.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures the object-store connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// PublicBaseURL overrides the URL prefix returned for uploaded
	// objects, for deployments serving the bucket through a CDN.
	PublicBaseURL string
}

// Client uploads objects to a single bucket.
type Client struct {
	mc      *minio.Client
	bucket  string
	baseURL string
}

// New connects to the endpoint and ensures the bucket exists.
func New(ctx context.Context, opts Options) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("object store bucket check: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("object store bucket create: %w", err)
		}
	}

	baseURL := strings.TrimSuffix(opts.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	return &Client{mc: mc, bucket: opts.Bucket, baseURL: baseURL}, nil
}

// Put uploads data at path and returns a long-lived retrievable URL.
func (c *Client) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	path = strings.TrimPrefix(path, "/")

	_, err := c.mc.PutObject(ctx, c.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	return c.baseURL + "/" + path, nil
}
