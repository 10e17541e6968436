package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/finnholt/beamcast/configs"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaService stores post media in Cloudflare R2 and hands back the public
// URL that goes into a post's media_urls.
type MediaService struct {
	config cfg.Config
}

func NewMediaService(cfg cfg.Config) *MediaService {
	return &MediaService{config: cfg}
}

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "mp4": {}, "mov": {},
}

func (m *MediaService) Upload(ctx context.Context, file []byte) (string, error) {
	kind, err := filetype.Match(file)
	if err != nil || kind == types.Unknown {
		return "", fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed", kind.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	client, err := m.r2Client(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return fmt.Sprintf("%s/%s", m.config.R2.PublicURL, key), nil
}

func (m *MediaService) r2Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(m.config.R2.AccessKey, m.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", m.config.R2.AccountID))
	}), nil
}
