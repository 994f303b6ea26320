package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// uploader is the part of manager.Uploader used here.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads documents to Amazon S3 (or compatible APIs).
type S3Publisher struct {
	uploader  uploader
	bucket    string
	keyPrefix string
}

var _ Publisher = (*S3Publisher)(nil)

func NewS3Publisher(client *s3.Client, bucket, keyPrefix string) (*S3Publisher, error) {
	return newS3Publisher(manager.NewUploader(client), bucket, keyPrefix)
}

func newS3Publisher(up uploader, bucket, keyPrefix string) (*S3Publisher, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &S3Publisher{
		uploader:  up,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}, nil
}

func (p *S3Publisher) PublishJSON(ctx context.Context, key string, v any) (string, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if p.keyPrefix != "" {
		key = p.keyPrefix + "/" + key
	}

	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
		ACL:          types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}
