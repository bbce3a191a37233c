// Package s3store stores artifact bytes in an S3 bucket.
package s3store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/opsml/opsml/adapters/chunk"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// Client implements ports.StorageClient against S3. Artifacts live
// under root inside the bucket.
type Client struct {
	bucket   string
	root     string
	api      *s3.Client
	uploader *manager.Uploader
}

// New creates a client for an s3://bucket/root URI. Credentials come
// from the standard AWS environment and shared config chain.
func New(ctx context.Context, uri, region string) (*Client, error) {
	bucket, root, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(cfg)
	return &Client{
		bucket:   bucket,
		root:     root,
		api:      api,
		uploader: manager.NewUploader(api),
	}, nil
}

var _ ports.StorageClient = (*Client)(nil)

func parseURI(uri string) (bucket, root string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("storage uri %q is not of the form s3://bucket/root", uri)
	}
	bucket, root, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(root, "/"), nil
}

func (c *Client) Validate(backend string) bool {
	return backend == config.BackendS3
}

func (c *Client) BasePath() string {
	return "s3://" + path.Join(c.bucket, c.root)
}

func (c *Client) key(p string) string {
	return path.Join(c.root, strings.TrimLeft(p, "/"))
}

func (c *Client) Put(ctx context.Context, p string, r io.Reader) (string, error) {
	key := c.key(p)
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", c.bucket, key, err)
	}
	return "s3://" + path.Join(c.bucket, key), nil
}

func (c *Client) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	key := c.key(p)
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", c.bucket, key, err)
	}
	return out.Body, nil
}

func (c *Client) Iterfile(ctx context.Context, p string, chunkSize int) (ports.ChunkIterator, error) {
	rc, err := c.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	it, err := chunk.NewIterator(rc, chunkSize)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return it, nil
}

func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := c.key(prefix)
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(keyPrefix),
	})

	var paths []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", c.bucket, keyPrefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if c.root != "" {
				key = strings.TrimPrefix(key, c.root+"/")
			}
			paths = append(paths, key)
		}
	}
	return paths, nil
}
