package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mberk/pdfshelf-be/internal/config"
)

// S3Store stores blobs in an S3-compatible bucket and serves them back
// through a public base URL.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store builds a blob store from the application configuration. A custom
// endpoint switches the client to path-style addressing so MinIO-style
// deployments work out of the box.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimSuffix(cfg.S3PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket, publicBaseURL: base}, nil
}

// UploadRaw stores a PDF payload under the pdfs/ prefix.
func (s *S3Store) UploadRaw(ctx context.Context, payload string) (string, error) {
	return s.upload(ctx, payload, "pdfs", "application/pdf")
}

// UploadImage stores a thumbnail payload under the thumbnails/ prefix.
func (s *S3Store) UploadImage(ctx context.Context, payload string) (string, error) {
	return s.upload(ctx, payload, "thumbnails", "image/jpeg")
}

func (s *S3Store) upload(ctx context.Context, payload, folder, fallbackType string) (string, error) {
	data, contentType, err := decodePayload(payload)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = fallbackType
	}

	key := folder + "/" + uuid.New().String() + extensionFor(contentType)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// Destroy deletes the object a previously returned URL points at.
func (s *S3Store) Destroy(ctx context.Context, url string) error {
	key, err := objectKeyFromURL(url, s.publicBaseURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// decodePayload accepts a bare base64 string or a data: URI and returns the
// raw bytes plus the declared content type, if any.
func decodePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	contentType := ""

	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		meta := payload[len("data:"):comma]
		contentType = strings.SplitN(meta, ";", 2)[0]
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip the padding.
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, contentType, nil
}

func objectKeyFromURL(url, publicBaseURL string) (string, error) {
	prefix := publicBaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", ErrNotManaged
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", ErrNotManaged
	}
	return key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
