package blob

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"greenleaf/internal/config"
)

func TestImageKey(t *testing.T) {
	pattern := regexp.MustCompile(`^images/s1/[0-9a-f-]{36}\.png$`)
	if key := ImageKey("s1", "Leaf.PNG", "image/jpeg"); !pattern.MatchString(key) {
		t.Fatalf("unexpected key %s", key)
	}
	if key := ImageKey("s1", "upload", "image/png"); !pattern.MatchString(key) {
		t.Fatalf("expected extension from content type, got %s", key)
	}
	if a, b := ImageKey("s1", "a.png", ""), ImageKey("s1", "a.png", ""); a == b {
		t.Fatalf("expected unique keys, got %s twice", a)
	}
	if key := ExportKey("e1", "green_leaf.xlsx"); key != "exports/e1/green_leaf.xlsx" {
		t.Fatalf("unexpected export key %s", key)
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	fsStore, err := Open(ctx, config.BlobConfig{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("open default driver: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("expected fs default, got %s", fsStore.Driver())
	}

	mem, err := Open(ctx, config.BlobConfig{Driver: "memory", PublicBaseURL: "/static"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	info, err := mem.Put(ctx, "images/x.jpg", bytes.NewReader([]byte("x")), PutOptions{})
	if err != nil || info.URL != "/static/images/x.jpg" {
		t.Fatalf("unexpected put result %+v %v", info, err)
	}

	if _, err := Open(ctx, config.BlobConfig{Driver: "s3"}); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}
	if _, err := Open(ctx, config.BlobConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestMockS3SharesContract(t *testing.T) {
	ctx := context.Background()
	for _, st := range []Store{NewMemory(), NewMockS3ForTests()} {
		if _, err := st.Put(ctx, "exports/e/a.csv", bytes.NewReader([]byte("a")), PutOptions{ContentType: "text/csv"}); err != nil {
			t.Fatalf("%s put: %v", st.Driver(), err)
		}
		if _, err := st.Head(ctx, "exports/e/missing.csv"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", st.Driver(), err)
		}
	}
}
