package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	PublicBaseURL   string
	MaxUploadSize   int64
}

// objectPutter is the slice of *s3.Client the store needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads profile pictures to an S3 compatible bucket (MinIO, R2, AWS).
type S3Store struct {
	client  objectPutter
	bucket  string
	baseURL string
	maxSize int64
	newKey  func(ext string) string
	log     zerolog.Logger
}

func NewS3Store(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Store, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               cfg.Endpoint,
			HostnameImmutable: true,
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Store(client, cfg, log), nil
}

func newS3Store(client objectPutter, cfg S3Config, log zerolog.Logger) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxSize: cfg.MaxUploadSize,
		newKey: func(ext string) string {
			return "avatars/" + uuid.NewString() + ext
		},
		log: log.With().Str("component", "s3_media").Logger(),
	}
}

// Upload decodes raw, stores it under avatars/<uuid>.<ext> and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, raw string) (string, error) {
	img, err := DecodeImage(raw, s.maxSize)
	if err != nil {
		return "", err
	}

	key := s.newKey(img.Ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("profile picture stored")
	return s.baseURL + "/" + key, nil
}
