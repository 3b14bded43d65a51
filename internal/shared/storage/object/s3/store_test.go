package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"ats-expert/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "reports/a.md", want: "reports/a.md"},
		{name: "simple prefix", prefix: "root", key: "reports/a.md", want: "root/reports/a.md"},
		{name: "prefix trailing slash", prefix: "root/", key: "reports/a.md", want: "root/reports/a.md"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/reports/a.md", want: "root/reports/a.md"},
		{name: "nested prefix", prefix: "root/sub", key: "reports/a.md", want: "root/sub/reports/a.md"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    []byte
	getErr  error
	getBody string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = params
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.getBody))}, nil
}

func TestPutUsesPrefixAndEncryption(t *testing.T) {
	fake := &fakeS3{}
	store := newStore(fake, "bucket", "/ats/", "kms-key")

	n, err := store.Put(context.Background(), "reports/a.md", "text/markdown", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes, got %d", n)
	}
	if got := aws.ToString(fake.put.Key); got != "ats/reports/a.md" {
		t.Fatalf("unexpected key %q", got)
	}
	if fake.put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected kms encryption, got %q", fake.put.ServerSideEncryption)
	}
	if aws.ToString(fake.put.ContentType) != "text/markdown" {
		t.Fatalf("unexpected content type %q", aws.ToString(fake.put.ContentType))
	}
}

func TestOpenMapsNoSuchKey(t *testing.T) {
	fake := &fakeS3{getErr: &s3types.NoSuchKey{}}
	store := newStore(fake, "bucket", "", "")
	if _, err := store.Open(context.Background(), "reports/missing.md"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenReturnsBody(t *testing.T) {
	fake := &fakeS3{getBody: "# Report"}
	store := newStore(fake, "bucket", "", "")
	rc, err := store.Open(context.Background(), "reports/a.md")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "# Report" {
		t.Fatalf("unexpected body %q", data)
	}
}
