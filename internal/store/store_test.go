package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
)

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	meta                     map[string]string
	err                      error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	f.meta = in.Metadata
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestFileUploader_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a", "b", "out.png")
	err := (&FileUploader{}).Upload(context.Background(), UploadParams{Name: p, Data: []byte("png"), ContentType: ContentTypePNG})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "png" {
		t.Fatalf("read back: %q err=%v", b, err)
	}
}

func TestS3Uploader_PutsObject(t *testing.T) {
	f := &fakeS3{}
	u := &S3Uploader{Client: f, Bucket: "images"}
	meta := map[string]string{"seed": "42"}
	if err := u.Upload(context.Background(), UploadParams{Name: "out/x.png", Data: []byte{1, 2}, ContentType: ContentTypePNG, Metadata: meta}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if f.bucket != "images" || f.key != "out/x.png" || f.contentType != ContentTypePNG || !bytes.Equal(f.body, []byte{1, 2}) {
		t.Fatalf("unexpected put: %+v", f)
	}
	if diff := cmp.Diff(meta, f.meta); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}

	f.err = errors.New("access denied")
	if err := u.Upload(context.Background(), UploadParams{Name: "y"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseS3(t *testing.T) {
	cases := []struct {
		in          string
		bucket, key string
		ok          bool
	}{
		{"s3://b/k.png", "b", "k.png", true},
		{"s3://b/dir/k.png", "b", "dir/k.png", true},
		{"s3://b", "b", "", true},
		{"output.png", "", "", false},
		{"/tmp/s3://x", "", "", false},
	}
	for _, c := range cases {
		b, k, ok := ParseS3(c.in)
		if b != c.bucket || k != c.key || ok != c.ok {
			t.Fatalf("ParseS3(%q)=(%q,%q,%v)", c.in, b, k, ok)
		}
	}
}

func TestForTarget_Local(t *testing.T) {
	u, name, err := ForTarget(context.Background(), "output.png")
	if err != nil {
		t.Fatalf("ForTarget: %v", err)
	}
	if _, ok := u.(*FileUploader); !ok || name != "output.png" {
		t.Fatalf("expected file uploader for output.png, got %T %q", u, name)
	}
	if _, _, err := ForTarget(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty target")
	}
	for _, bad := range []string{"s3://bucket", "s3://bucket/", "s3:///key"} {
		if _, _, err := ForTarget(context.Background(), bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDir_Save(t *testing.T) {
	base := t.TempDir()
	d, err := OpenDir(context.Background(), base)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	full, err := d.Save(context.Background(), "abc.png", []byte("x"), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if full != filepath.Join(base, "abc.png") {
		t.Fatalf("unexpected path %q", full)
	}
	if _, err := os.Stat(full); err != nil {
		t.Fatalf("stat: %v", err)
	}

	f := &fakeS3{}
	sd := NewDir(&S3Uploader{Client: f, Bucket: "b"}, "gen", true)
	got, err := sd.Save(context.Background(), "abc.png", []byte("x"), map[string]string{"model": "dev"})
	if err != nil {
		t.Fatalf("Save s3: %v", err)
	}
	if got != "gen/abc.png" || f.key != "gen/abc.png" || f.contentType != ContentTypePNG {
		t.Fatalf("unexpected s3 save: name=%q put=%+v", got, f)
	}
}
