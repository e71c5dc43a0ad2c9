// Package storage persists serialized observations to S3 under
// date-derived keys.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/wxlake/weather-extractor/internal/common"
	"github.com/wxlake/weather-extractor/internal/observation"
	"github.com/wxlake/weather-extractor/internal/parquet"
)

// StorageError wraps any failure to serialize or upload the run's object.
type StorageError struct {
	Bucket string
	Key    string
	Reason string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage: %s for s3://%s/%s: %v", e.Reason, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Reason, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Writer uploads one observation row per run. The key is derived from the
// UTC run date, so a second run on the same day overwrites the first: last
// write wins, by design of the dataset layout.
type Writer struct {
	s3     s3iface.S3API
	bucket string
	prefix string
}

func NewWriter(client s3iface.S3API, bucket, prefix string) *Writer {
	return &Writer{
		s3:     client,
		bucket: bucket,
		prefix: prefix,
	}
}

// ObjectKey returns the date-partitioned key for a run at time t.
func (w *Writer) ObjectKey(t time.Time) string {
	return w.prefix + t.UTC().Format("20060102") + ".parquet.gzip"
}

// Store serializes the row and uploads it in a single PutObject. Nothing is
// written to the bucket unless serialization succeeded, so a failed run
// leaves no partial artifact.
func (w *Writer) Store(ctx context.Context, runTime time.Time, row observation.Row) (string, error) {
	body, err := parquet.Marshal(row)
	if err != nil {
		return "", &StorageError{Bucket: w.bucket, Reason: "serialize observation", Err: err}
	}

	key := w.ObjectKey(runTime)
	_, err = w.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return "", &StorageError{Bucket: w.bucket, Key: key, Reason: classify(err), Err: err}
	}

	return key, nil
}

// classify maps SDK failures onto the reasons the run log reports.
func classify(err error) string {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchBucket:
			return "bucket not found"
		case "NoCredentialProviders", "CredentialsError", "InvalidAccessKeyId",
			"SignatureDoesNotMatch", "AccessDenied", "ExpiredToken":
			return "missing or invalid credentials"
		case "RequestError", "RequestCanceled":
			return "network failure during upload"
		}
	}
	if common.HasAny(err.Error(), "connection refused", "no such host", "timeout", "EOF") {
		return "network failure during upload"
	}
	return "upload failed"
}
