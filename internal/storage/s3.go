package storage

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// Uploader stores request photos in an S3-compatible bucket and returns the
// public URL the backend persists with the request.
type Uploader struct {
	client *s3.S3
	bucket string
}

type Options struct {
	Bucket   string
	Region   string
	Endpoint string
}

func NewUploader(opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: s3.New(sess), bucket: opts.Bucket}, nil
}

func (u *Uploader) UploadImage(data []byte, filename, contentType string) (string, error) {
	key := fmt.Sprintf("requests/%s/%s%s",
		time.Now().UTC().Format("2006-01"), uuid.NewString(), path.Ext(filename))

	_, err := u.client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}

	endpoint := aws.StringValue(u.client.Config.Endpoint)
	if endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", endpoint, u.bucket, key), nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key), nil
}
