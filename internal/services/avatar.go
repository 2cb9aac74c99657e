package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const avatarUploadTTL = 5 * time.Minute

// AvatarStorage issues pre-signed S3 uploads for profile pictures
type AvatarStorage struct {
	presign *s3.PresignClient
	bucket  string
}

// NewAvatarStorage creates S3 storage. Static credentials and a custom
// endpoint are optional; the default AWS credential chain is used otherwise.
func NewAvatarStorage(ctx context.Context, region, bucket, accessKey, secretKey, endpoint string) (*AvatarStorage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &AvatarStorage{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// PresignUpload returns a URL the client can PUT the object to
func (a *AvatarStorage) PresignUpload(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	request, err := a.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadTTL
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, avatarUploadTTL, nil
}
