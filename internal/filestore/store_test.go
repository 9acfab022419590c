package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/issuetracker/internal/config"
)

func TestLocalStoreSaveOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "shot.png", strings.NewReader("png-bytes"), 9, "image/png"))

	file, err := store.Open(ctx, "shot.png")
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	require.Equal(t, "http://host/api/v1/files/shot.png", store.URL("shot.png", "http://host/"))
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	ctx := context.Background()
	for _, key := range []string{"", "..", "../etc/passwd", "a/b", `a\b`} {
		require.ErrorIs(t, store.Save(ctx, key, strings.NewReader("x"), 1, ""), ErrInvalidKey, key)
		_, err := store.Open(ctx, key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorePublicURL(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{
		"dir":        t.TempDir(),
		"public_url": "https://cdn.test/files/",
	}})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/files/a.txt", store.URL("a.txt", "http://ignored"))
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{})
	require.Error(t, err)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3StoreSave(t *testing.T) {
	client := &fakePutter{}
	store := newS3Store(client, s3Config{
		Endpoint: "http://minio:9000/",
		Bucket:   "attachments",
		Prefix:   "/issues/",
	})
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a.txt", strings.NewReader("hello"), 5, "text/plain"))
	require.Equal(t, "attachments", aws.ToString(client.input.Bucket))
	require.Equal(t, "issues/a.txt", aws.ToString(client.input.Key))
	require.Equal(t, "text/plain", aws.ToString(client.input.ContentType))
	require.Equal(t, "hello", client.body)
	require.Equal(t, "http://minio:9000/attachments/issues/a.txt", store.URL("a.txt", ""))

	_, err := store.Open(ctx, "a.txt")
	require.ErrorIs(t, err, ErrNotSupported)

	client.err = errors.New("boom")
	require.Error(t, store.Save(ctx, "b.txt", strings.NewReader("x"), 1, ""))
}

func TestS3StoreDefaultURL(t *testing.T) {
	store := newS3Store(&fakePutter{}, s3Config{Bucket: "b", Region: "eu-west-1"})
	require.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", store.URL("k.png", ""))
}
