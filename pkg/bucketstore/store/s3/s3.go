// Package s3 implements a durable, shared BlobBackend on top of S3 or an
// S3-compatible object store (MinIO, LocalStack). Objects are keyed by hex
// content hash under an optional prefix.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/coldvault/core/pkg/bucketstore"
	"github.com/coldvault/core/pkg/ids"
)

// Backend is a BlobBackend backed by an S3 bucket. Calls use context.Background
// internally since BlobBackend's interface predates context plumbing; callers
// needing cancellation should wrap Store at a higher layer.
type Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates a Backend against an already-configured S3 client.
func New(client *s3.Client, bucket, prefix string) *Backend {
	return &Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *Backend) key(hash ids.Hash) string {
	return b.prefix + hash.String()
}

func (b *Backend) Put(hash ids.Hash, data []byte) error {
	_, err := b.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
		Body:   bytes.NewReader(data),
	})
	return err
}

func (b *Backend) Get(hash ids.Hash) ([]byte, error) {
	out, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, bucketstore.NewNotFoundError()
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (b *Backend) Delete(hash ids.Hash) error {
	_, err := b.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	return err
}

func (b *Backend) Contains(hash ids.Hash) (bool, error) {
	_, err := b.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) Size(hash ids.Hash) (uint64, error) {
	head, err := b.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, bucketstore.NewNotFoundError()
		}
		return 0, err
	}
	if head.ContentLength == nil {
		return 0, nil
	}
	return uint64(*head.ContentLength), nil
}

var _ bucketstore.BlobBackend = (*Backend)(nil)
