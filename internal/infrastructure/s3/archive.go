package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-apns-push/internal/config"
)

// FrameArchive stores frames rejected by the 256-byte protocol ceiling so the
// offending payloads can be inspected offline. Oversized messages are reported,
// never truncated or silently dropped.
type FrameArchive struct {
	client *s3.Client
	bucket string
}

// NewClient creates an S3 client, honouring the LocalStack endpoint override.
func NewClient(cfg *config.Config) *s3.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) { o.UsePathStyle = true },
	}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...)
}

func NewFrameArchive(client *s3.Client, bucket string) *FrameArchive {
	return &FrameArchive{client: client, bucket: bucket}
}

// Archive writes the rejected frame under rejected/<date>/<notification id>.bin.
func (a *FrameArchive) Archive(ctx context.Context, notificationID string, frame []byte) error {
	key := fmt.Sprintf("rejected/%s/%s.bin", time.Now().UTC().Format("2006-01-02"), notificationID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(frame),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("archive rejected frame %s: %w", notificationID, err)
	}
	return nil
}
