package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// deleteBatchSize is the most keys a single DeleteObjects call accepts.
const deleteBatchSize = 1000

// CreatorPrefix is where every object owned by a creator lives.
func CreatorPrefix(creatorID int64) string {
	return fmt.Sprintf("creators/%d/", creatorID)
}

// ObjectStore is the slice of S3 the application needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, data []byte, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// s3API is satisfied by *s3.Client, tests swap in a fake.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type storageClient struct {
	bucket string
	client s3API
}

func NewStorageClient(ctx context.Context, region, bucket string) (ObjectStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &storageClient{
		bucket: bucket,
		client: s3.NewFromConfig(cfg),
	}, nil
}

func (s *storageClient) UploadFile(ctx context.Context, data []byte, key string) error {
	if key == "" {
		return errors.New("key is empty")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &mimeType,
	})
	return err
}

// DeletePrefix removes every object under 'prefix' and returns how many went.
// Deleting an empty prefix is not an error.
func (s *storageClient) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" || prefix == "/" {
		return 0, errors.New("refusing to delete the whole bucket")
	}

	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, err
		}

		for start := 0; start < len(page.Contents); start += deleteBatchSize {
			end := min(start+deleteBatchSize, len(page.Contents))
			ids := make([]types.ObjectIdentifier, 0, end-start)
			for _, obj := range page.Contents[start:end] {
				ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
			}

			out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return deleted, err
			}

			if len(out.Errors) > 0 {
				first := out.Errors[0]
				return deleted, fmt.Errorf("failed to delete %d objects, first %s: %s",
					len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
			}
			deleted += len(ids)
		}
	}
	return deleted, nil
}
