package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	DefaultRegion       = "us-east-1"
	DefaultCacheControl = "public, max-age=60"
)

// Config holds S3-compatible storage settings.
type Config struct {
	Bucket       string `env:"PUBLISH_S3_BUCKET"`
	Prefix       string `env:"PUBLISH_S3_PREFIX" envDefault:"locales"`
	AccessKey    string `env:"PUBLISH_S3_ACCESS_KEY"`
	SecretKey    string `env:"PUBLISH_S3_SECRET_KEY"`
	Region       string `env:"PUBLISH_S3_REGION" envDefault:"us-east-1"`
	Endpoint     string `env:"PUBLISH_S3_ENDPOINT"`
	PublicURL    string `env:"PUBLISH_S3_PUBLIC_URL"`
	CacheControl string `env:"PUBLISH_S3_CACHE_CONTROL" envDefault:"public, max-age=60"`
	PathStyle    bool   `env:"PUBLISH_S3_PATH_STYLE" envDefault:"false"`
	PublicRead   bool   `env:"PUBLISH_S3_PUBLIC_READ" envDefault:"false"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.CacheControl == "" {
		c.CacheControl = DefaultCacheControl
	}
}

func (c Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// objectAPI is the subset of the S3 client used by S3.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 publishes bundles as JSON objects.
type S3 struct {
	client objectAPI
	cfg    Config
}

// NewS3 creates an S3 publisher with static credentials.
func NewS3(cfg Config) (*S3, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})
	return &S3{client: client, cfg: cfg}, nil
}

// Publish uploads document to {prefix}/{language}.json.
func (s *S3) Publish(ctx context.Context, language string, document json.RawMessage) error {
	key, err := ObjectKey(s.cfg.Prefix, language)
	if err != nil {
		return err
	}
	if !json.Valid(document) {
		return fmt.Errorf("%w: %s is not valid json", ErrUploadFailed, key)
	}

	acl := types.ObjectCannedACLPrivate
	if s.cfg.PublicRead {
		acl = types.ObjectCannedACLPublicRead
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(document),
		ContentLength: aws.Int64(int64(len(document))),
		ContentType:   aws.String("application/json"),
		CacheControl:  aws.String(s.cfg.CacheControl),
		ACL:           acl,
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	return nil
}

// Fetch downloads the published document of language.
func (s *S3) Fetch(ctx context.Context, language string) (json.RawMessage, error) {
	key, err := ObjectKey(s.cfg.Prefix, language)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrDownloadFailed)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return data, nil
}

// Delete removes the published document of language.
func (s *S3) Delete(ctx context.Context, language string) error {
	key, err := ObjectKey(s.cfg.Prefix, language)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// URL returns the public address of the language document.
func (s *S3) URL(language string) (string, error) {
	key, err := ObjectKey(s.cfg.Prefix, language)
	if err != nil {
		return "", err
	}
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key, nil
	case s.cfg.Endpoint != "" && s.cfg.PathStyle:
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, key), nil
	case s.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), key), nil
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key), nil
	}
}

var _ Publisher = (*S3)(nil)
