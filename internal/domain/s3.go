package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Verifier checks destination reachability against the S3-compatible API.
type S3Verifier struct{}

// NewS3Verifier creates a verifier.
func NewS3Verifier() *S3Verifier {
	return &S3Verifier{}
}

func (v *S3Verifier) client(ctx context.Context, d *Destination) (*s3.Client, error) {
	region := strings.TrimSpace(d.Region)
	if region == "" {
		region = "us-east-1"
	}
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if d.AccessKeyID != "" && d.SecretKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(d.AccessKeyID, d.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := strings.TrimSpace(d.Endpoint)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// TestConnection issues a HeadBucket against the destination's bucket.
func (v *S3Verifier) TestConnection(ctx context.Context, d *Destination) error {
	client, err := v.client(ctx, d)
	if err != nil {
		return err
	}
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &d.Bucket}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("bucket %q unreachable: %s", d.Bucket, apiErr.ErrorCode())
		}
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}

// ListBackupFiles lists object keys under prefix, newest-key order left to
// the caller. limit caps the page size.
func (v *S3Verifier) ListBackupFiles(ctx context.Context, d *Destination, prefix string, limit int) ([]string, error) {
	client, err := v.client(ctx, d)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	input := &s3.ListObjectsV2Input{
		Bucket:  &d.Bucket,
		MaxKeys: aws.Int32(int32(limit)),
	}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		input.Prefix = aws.String(prefix + "/")
	}
	out, err := client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("s3 list objects: %w", err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}
