package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
	"github.com/joseph-ayodele/inspection-wizard/internal/submission"
)

// PutObjectAPI is the slice of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads inline data-URL images and returns s3:// references.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

var _ submission.ImageSink = (*S3Sink)(nil)

// NewS3Sink loads the default AWS configuration for region.
func NewS3Sink(ctx context.Context, region, bucket, prefix string, logger *slog.Logger) (*S3Sink, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3SinkWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func NewS3SinkWithClient(client PutObjectAPI, bucket, prefix string, logger *slog.Logger) *S3Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Store uploads image when it is a data URL. Anything else is assumed to be stored already
// and is returned unchanged.
func (s *S3Sink) Store(ctx context.Context, inspectionID, photoID uuid.UUID, image string) (string, error) {
	if !imageprep.IsDataURL(image) {
		return image, nil
	}
	mime, data, err := imageprep.DecodeDataURL(image)
	if err != nil {
		return "", err
	}

	key := path.Join(s.prefix, inspectionID.String(), photoID.String()+extFor(mime))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mime),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"inspection-id": inspectionID.String(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	s.logger.Debug("blob.stored", "key", key, "bytes", len(data))
	return "s3://" + s.bucket + "/" + key, nil
}

func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
