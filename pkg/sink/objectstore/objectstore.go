// Package objectstore uploads result sets as CSV objects to S3 compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/config"
	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/sink"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

const contentType = "text/csv"

// PutObjectAPI is the subset of the S3 client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Sink uploads <prefix>/<table>/<table>_<start>_to_<end>.csv.
type Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

var _ sink.Sink = (*Sink)(nil)

// New creates an object store sink.
func New(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// NewClient builds an S3 client from the default credential chain.
func NewClient(ctx context.Context, cfg config.ObjectStoreConfig) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

// Name implements sink.Sink.
func (s *Sink) Name() string { return "object_store" }

// Key returns the object key of a result set.
func (s *Sink) Key(spec *entity.Spec, rs *syncer.ResultSet) string {
	return path.Join(s.prefix, spec.Table, sink.FileName(spec, rs.Window))
}

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, spec *entity.Spec, rs *syncer.ResultSet) error {
	var buf bytes.Buffer
	if err := sink.EncodeCSV(&buf, rs, true); err != nil {
		return err
	}

	key := s.Key(spec, rs)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	s.logger.Debug("object uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}
