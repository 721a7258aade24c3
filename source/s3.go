package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client used by S3Source
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source finds candidate log objects under a bucket prefix
type S3Source struct {
	client S3API
	bucket string
	prefix string
	filter Filter
}

// NewS3Source creates a source over s3://bucket/prefix
func NewS3Source(client S3API, bucket, prefix string, filter Filter) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
		filter: filter,
	}
}

// NewS3Client creates an S3 client from the default AWS configuration chain.
// AWS_ENDPOINT_URL switches to a custom endpoint with path-style addressing.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	if endpoint == "" {
		return s3.NewFromConfig(cfg), nil
	}

	cfg.BaseEndpoint = aws.String(endpoint)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// Find lists all objects under the prefix, in key order
func (s *S3Source) Find(ctx context.Context) ([]File, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var files []File
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list s3://%s/%s", s.bucket, s.prefix)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}

			name := path.Base(key)
			if s.filter != nil && !s.filter(name) {
				continue
			}

			files = append(files, File{
				Name: name,
				Key:  key,
				Path: fmt.Sprintf("s3://%s/%s", s.bucket, key),
				Size: aws.ToInt64(object.Size),
			})
		}
	}

	return files, nil
}

// Read downloads one object
func (s *S3Source) Read(ctx context.Context, file File) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(file.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", file.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file.Path)
	}

	content, err := decodeContent(data)
	if err != nil {
		return nil, errors.Wrap(err, file.Path)
	}
	return content, nil
}
