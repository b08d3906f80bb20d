package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// MockS3 is a mock implementation of PutObjectAPI
type MockS3 struct {
	PutObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *MockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func paymentsResult() *syncer.ResultSet {
	return &syncer.ResultSet{
		Entity:  entity.Payments,
		Columns: []string{"payment_id", "payment_date"},
		Records: []syncer.Record{{"payment_id": int64(1), "payment_date": int64(1746100000)}},
		Window:  syncer.NewWindow(time.Unix(1746057600, 0), time.Unix(1746144000, 0)),
	}
}

func TestSink_Write(t *testing.T) {
	var got *s3.PutObjectInput
	var body []byte
	mock := &MockS3{
		PutObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = params
			body, _ = io.ReadAll(params.Body)
			return &s3.PutObjectOutput{}, nil
		},
	}

	spec, _ := entity.Default().Get(entity.Payments)
	s := New(mock, "ventas", "bsale", zap.NewNop())

	if err := s.Write(context.Background(), spec, paymentsResult()); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if aws.ToString(got.Bucket) != "ventas" {
		t.Fatalf("expected bucket ventas, got %s", aws.ToString(got.Bucket))
	}
	if want := "bsale/pagos/pagos_1746057600_to_1746144000.csv"; aws.ToString(got.Key) != want {
		t.Fatalf("expected key %s, got %s", want, aws.ToString(got.Key))
	}
	if want := "payment_id,payment_date\n1,1746100000\n"; string(body) != want {
		t.Fatalf("unexpected body %q", body)
	}
	if aws.ToString(got.ContentType) != "text/csv" {
		t.Fatalf("unexpected content type %s", aws.ToString(got.ContentType))
	}
}

func TestSink_WriteError(t *testing.T) {
	mock := &MockS3{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, errors.New("access denied")
		},
	}
	spec, _ := entity.Default().Get(entity.Payments)

	if err := New(mock, "ventas", "", zap.NewNop()).Write(context.Background(), spec, paymentsResult()); err == nil {
		t.Fatal("expected error")
	}
}
