// Package storage uploads recipe images to S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/config"
)

const MaxImageSize = 5 << 20

// AllowedImageTypes maps accepted content types to file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader is the part of the S3 client ImageStore uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ImageStore struct {
	client    Uploader
	bucket    string
	publicURL string
}

func NewImageStore(ctx context.Context, cfg config.S3Config) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return NewImageStoreWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, publicURL), nil
}

func NewImageStoreWithClient(client Uploader, bucket, publicURL string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// DetectImageType sniffs the content type and rejects anything that is not an accepted image.
func DetectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("image is empty")
	}
	if len(data) > MaxImageSize {
		return "", apperr.Validation("image exceeds %d MiB", MaxImageSize>>20)
	}
	contentType := http.DetectContentType(data)
	if _, ok := AllowedImageTypes[contentType]; !ok {
		return "", apperr.Validation("unsupported image type %s", contentType)
	}
	return contentType, nil
}

// Upload stores data under recipes/<user>/<date>/<uuid><ext> and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, userID int64, data []byte) (string, error) {
	contentType, err := DetectImageType(data)
	if err != nil {
		return "", err
	}

	key := path.Join("recipes",
		fmt.Sprint(userID),
		time.Now().UTC().Format("2006/01/02"),
		uuid.NewString()+AllowedImageTypes[contentType])

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperr.Wrap(err, "failed to upload image")
	}

	return s.publicURL + "/" + key, nil
}
