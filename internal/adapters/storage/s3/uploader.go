// Package s3 issues presigned PUT URLs for tenant image uploads.
package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = 15 * time.Minute

type Uploader struct {
	presign *awss3.PresignClient
	bucket  string
	baseURL string
}

// NewUploader builds the presigner from the ambient AWS credential chain.
func NewUploader(ctx context.Context, region, bucket, baseURL string) (*Uploader, error) {
	if bucket == "" {
		return nil, errors.New("s3: empty bucket")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	client := awss3.NewFromConfig(cfg)
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Uploader{
		presign: awss3.NewPresignClient(client),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// PresignPut signs a PUT for the given object key and returns both the
// upload URL and the public URL the client should persist.
func (u *Uploader) PresignPut(ctx context.Context, key, contentType string) (string, string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", "", errors.New("s3: empty object key")
	}

	in := &awss3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := u.presign.PresignPutObject(ctx, in, awss3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", fmt.Errorf("s3: presign put object: %w", err)
	}
	return req.URL, u.baseURL + "/" + key, nil
}
