package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cmwn/skramble/pkg/errors"
)

// Composites are immutable once published, so downstream caches may hold
// them for four days.
const cacheControl = "max-age=345600"

// putObjectAPI is the slice of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads composites to a single bucket under <skribble_id>.png.
type S3 struct {
	client putObjectAPI
	bucket string
}

// NewS3 builds an uploader against the given bucket using the default AWS
// credential chain.
func NewS3(ctx context.Context, bucket, region string) (*S3, error) {
	if bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpload, err, "load AWS configuration")
	}

	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewS3WithClient wires a custom S3 API, primarily for tests.
func NewS3WithClient(client putObjectAPI, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

// Upload puts the composite at <skribble_id>.png with public-read access
// and returns the object key.
func (u *S3) Upload(ctx context.Context, skribbleID string, data []byte) (string, error) {
	key := fmt.Sprintf("%s.png", skribbleID)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("image/png"),
		CacheControl: aws.String(cacheControl),
		ACL:          types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUpload, err, "put s3://%s/%s", u.bucket, key)
	}
	return key, nil
}
