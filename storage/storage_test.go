package storage

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestValidate(t *testing.T) {
	t.Run("accepts png", func(t *testing.T) {
		mtype, err := Validate(newFileHeader(t, "dish.png", pngBytes), 0)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mtype.String())
	})

	t.Run("rejects text renamed as image", func(t *testing.T) {
		_, err := Validate(newFileHeader(t, "dish.png", []byte("just some text")), 0)
		var uploadErr *UploadError
		require.True(t, errors.As(err, &uploadErr))
		assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := Validate(newFileHeader(t, "dish.png", pngBytes), 10)
		var uploadErr *UploadError
		require.True(t, errors.As(err, &uploadErr))
		assert.Equal(t, "FILE_TOO_LARGE", uploadErr.Code)
	})
}

func TestLocalStoreSave(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, 0)

	ref, err := store.Save(context.Background(), newFileHeader(t, "dish.png", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, saved)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	return &s3.PutObjectOutput{}, f.err
}

func TestS3StoreSave(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, opts: S3Options{Region: "us-east-1", Bucket: "menu"}}

	ref, err := store.Save(context.Background(), newFileHeader(t, "dish.png", pngBytes))
	require.NoError(t, err)
	require.NotNil(t, fake.input)
	assert.Equal(t, "menu", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "https://menu.s3.us-east-1.amazonaws.com/"+aws.ToString(fake.input.Key), ref)

	store.opts.PublicBaseURL = "https://cdn.example.com/"
	ref, err = store.Save(context.Background(), newFileHeader(t, "dish.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+aws.ToString(fake.input.Key), ref)

	fake.err = errors.New("boom")
	_, err = store.Save(context.Background(), newFileHeader(t, "dish.png", pngBytes))
	assert.Error(t, err)
}
