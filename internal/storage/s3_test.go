package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/wxlake/weather-extractor/internal/observation"
)

type fakeS3 struct {
	s3iface.S3API

	putCount  int
	lastInput *s3.PutObjectInput
	err       error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.putCount++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func sampleRow() observation.Row {
	return observation.Row{Columns: []observation.Column{
		{Name: "location_name", Value: "New Delhi"},
		{Name: "temperature", Value: float64(28)},
	}}
}

// TestObjectKey verifies the date-partitioned key layout.
func TestObjectKey(t *testing.T) {
	w := NewWriter(&fakeS3{}, "bucket", "weather_data_raw/")

	runTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := w.ObjectKey(runTime); got != "weather_data_raw/20240601.parquet.gzip" {
		t.Errorf("expected weather_data_raw/20240601.parquet.gzip, got %q", got)
	}

	// Key derives from the UTC date even for non-UTC run times.
	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2024, 6, 2, 1, 0, 0, 0, ist) // still 2024-06-01 in UTC
	if got := w.ObjectKey(late); got != "weather_data_raw/20240601.parquet.gzip" {
		t.Errorf("expected UTC-derived key, got %q", got)
	}
}

// TestStoreUploadsSerializedRow verifies a single PutObject with a
// non-empty body at the expected bucket and key.
func TestStoreUploadsSerializedRow(t *testing.T) {
	fake := &fakeS3{}
	w := NewWriter(fake, "bucket", "weather_data_raw/")

	runTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	key, err := w.Store(context.Background(), runTime, sampleRow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.putCount != 1 {
		t.Fatalf("expected one PutObject call, got %d", fake.putCount)
	}
	if key != "weather_data_raw/20240601.parquet.gzip" {
		t.Errorf("unexpected key %q", key)
	}
	if got := aws.StringValue(fake.lastInput.Bucket); got != "bucket" {
		t.Errorf("expected bucket, got %q", got)
	}
	if got := aws.StringValue(fake.lastInput.Key); got != key {
		t.Errorf("expected key %q in request, got %q", key, got)
	}

	body, err := io.ReadAll(fake.lastInput.Body)
	if err != nil {
		t.Fatalf("read uploaded body: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected non-empty parquet body")
	}
}

// TestStoreClassifiesFailures verifies SDK errors surface as StorageError
// with a useful reason.
func TestStoreClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		reason string
	}{
		{"missing bucket", awserr.New(s3.ErrCodeNoSuchBucket, "bucket does not exist", nil), "bucket not found"},
		{"no credentials", awserr.New("NoCredentialProviders", "no valid providers", nil), "missing or invalid credentials"},
		{"transport", errors.New("dial tcp: connection refused"), "network failure during upload"},
	}

	runTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter(&fakeS3{err: tc.err}, "bucket", "weather_data_raw/")
			_, err := w.Store(context.Background(), runTime, sampleRow())
			if err == nil {
				t.Fatal("expected error")
			}
			var storageErr *StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("expected StorageError, got %T: %v", err, err)
			}
			if storageErr.Reason != tc.reason {
				t.Errorf("expected reason %q, got %q", tc.reason, storageErr.Reason)
			}
		})
	}
}
