package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	inputs  []*s3.PutObjectInput
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestS3(t *testing.T, cfg Config) (*S3, *fakeObjects) {
	t.Helper()
	cfg.Bucket, cfg.AccessKey, cfg.SecretKey = "assets", "key", "secret"
	s, err := NewS3(cfg)
	require.NoError(t, err)
	fake := newFakeObjects()
	s.client = fake
	return s, fake
}

func TestNewS3(t *testing.T) {
	t.Parallel()

	s, err := NewS3(Config{Bucket: "b", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, s.cfg.Region)
	assert.Equal(t, DefaultCacheControl, s.cfg.CacheControl)

	_, err = NewS3(Config{Bucket: "b"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestS3_PublishFetchDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, fake := newTestS3(t, Config{Prefix: "/locales/", PublicRead: true})

	doc := json.RawMessage(`{"home":{"hero":{"title":"Welcome"}}}`)
	require.NoError(t, s.Publish(ctx, "en", doc))

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "locales/en.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))
	assert.Equal(t, types.ObjectCannedACLPublicRead, in.ACL)

	got, err := s.Fetch(ctx, "en")
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))

	require.NoError(t, s.Delete(ctx, "en"))
	_, err = s.Fetch(ctx, "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3_PublishRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestS3(t, Config{})

	require.ErrorIs(t, s.Publish(ctx, "../etc", json.RawMessage(`{}`)), ErrInvalidLanguage)
	require.ErrorIs(t, s.Publish(ctx, "en", json.RawMessage(`{`)), ErrUploadFailed)
}

func TestS3_PublishMapsAPIErrors(t *testing.T) {
	t.Parallel()

	s, fake := newTestS3(t, Config{})
	fake.putErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	require.ErrorIs(t, s.Publish(context.Background(), "sl", json.RawMessage(`{}`)), ErrAccessDenied)

	fake.putErr = errors.New("network down")
	require.ErrorIs(t, s.Publish(context.Background(), "sl", json.RawMessage(`{}`)), ErrUploadFailed)
}

func TestS3_URL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "aws default", cfg: Config{Prefix: "locales"}, want: "https://assets.s3.us-east-1.amazonaws.com/locales/en.json"},
		{name: "public url", cfg: Config{PublicURL: "https://cdn.example.com/", Prefix: "i18n"}, want: "https://cdn.example.com/i18n/en.json"},
		{name: "path style endpoint", cfg: Config{Endpoint: "http://localhost:9000", PathStyle: true}, want: "http://localhost:9000/assets/en.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestS3(t, tt.cfg)
			got, err := s.URL("en")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	key, err := ObjectKey("", "pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "pt-BR.json", key)

	_, err = ObjectKey("x", "")
	require.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestNopAndFunc(t *testing.T) {
	t.Parallel()

	require.NoError(t, Nop{}.Publish(context.Background(), "en", nil))

	var got string
	f := Func(func(_ context.Context, lang string, _ json.RawMessage) error {
		got = lang
		return nil
	})
	require.NoError(t, f.Publish(context.Background(), "sl", nil))
	assert.Equal(t, "sl", got)
}
