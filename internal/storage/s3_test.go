package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	uploader := &fakeUploader{}
	store := NewImageStoreWithClient(uploader, "recipes", "https://cdn.example.com/")

	url, err := store.Upload(context.Background(), 42, pngPixel)
	require.NoError(t, err)

	require.NotNil(t, uploader.input)
	assert.Equal(t, "recipes", *uploader.input.Bucket)
	assert.Equal(t, "image/png", *uploader.input.ContentType)
	assert.True(t, strings.HasPrefix(*uploader.input.Key, "recipes/42/"))
	assert.True(t, strings.HasSuffix(*uploader.input.Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+*uploader.input.Key, url)
	assert.True(t, bytes.Equal(pngPixel, uploader.body))
}

func TestUploadRejectsNonImages(t *testing.T) {
	store := NewImageStoreWithClient(&fakeUploader{}, "recipes", "https://cdn.example.com")

	_, err := store.Upload(context.Background(), 1, []byte("plain text, not an image"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = store.Upload(context.Background(), 1, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUploadWrapsClientErrors(t *testing.T) {
	store := NewImageStoreWithClient(&fakeUploader{err: errors.New("access denied")}, "recipes", "https://cdn.example.com")

	_, err := store.Upload(context.Background(), 1, pngPixel)
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
}
