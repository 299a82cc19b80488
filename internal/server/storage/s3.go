// Package storage issues presigned direct-upload URLs against an
// S3-compatible object store (Cloudflare R2 in production, MinIO locally).
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// DefaultPresignExpiry is how long an upload URL stays valid.
const DefaultPresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicURL is the base under which uploaded objects are served.
	PublicURL string
	Expiry    time.Duration
}

type S3Storage struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
	expiry    time.Duration
}

func NewS3Storage(ctx context.Context, opts Options) (*S3Storage, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})

	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	return &S3Storage{
		presign:   newS3PresignClient(client),
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		expiry:    expiry,
	}, nil
}

// PresignUpload returns a URL the client can PUT exactly size bytes of
// contentType to under key.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string, size int64) (string, error) {
	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL is where key is served once uploaded, or "" when no public
// base is configured.
func (s *S3Storage) PublicURL(key string) string {
	if s.publicURL == "" {
		return ""
	}
	return s.publicURL + "/" + key
}

// NewKey builds a unique object key for a scene upload:
// scenes/{sceneID}/{kind}/{yyyy}/{mm}/{dd}/{uuid}{ext}.
func NewKey(sceneID, kind, fileName string, now time.Time) string {
	return fmt.Sprintf("scenes/%s/%s/%04d/%02d/%02d/%s%s",
		sceneID, kind, now.Year(), int(now.Month()), now.Day(), uuid.New(), extension(fileName))
}

// extension returns the lowercased extension of fileName when it is short
// and alphanumeric, else "".
func extension(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
