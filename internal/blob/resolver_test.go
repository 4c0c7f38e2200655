package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docsift/docsift/internal/common"
)

func TestIsBlobURL(t *testing.T) {
	if !IsBlobURL("azblob://scans/2024/doc.pdf") {
		t.Fatalf("azblob url not detected")
	}
	if IsBlobURL("/data/doc.pdf") || IsBlobURL("doc.pdf") {
		t.Fatalf("local path detected as blob url")
	}
}

func TestResolveLocalPassthrough(t *testing.T) {
	local := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(local, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := NewResolver(common.BlobConfig{}, nil)
	path, cleanup, err := r.Resolve(context.Background(), local)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	defer cleanup()
	if path != local {
		t.Fatalf("path = %q", path)
	}
}

func TestResolveLocalMissingFile(t *testing.T) {
	r := NewResolver(common.BlobConfig{}, nil)
	_, _, err := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	if err == nil {
		t.Fatalf("expected error for missing local file")
	}
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing file not tagged as not-found: %v", err)
	}
}

func TestResolveBlobWithoutCredentials(t *testing.T) {
	r := NewResolver(common.BlobConfig{}, nil)
	if _, _, err := r.Resolve(context.Background(), "azblob://scans/doc.pdf"); err == nil {
		t.Fatalf("expected credential error")
	}
}

func TestParseBlobURL(t *testing.T) {
	container, key, err := parseBlobURL("azblob://scans/2024/march/doc.pdf")
	if err != nil {
		t.Fatalf("parseBlobURL: %v", err)
	}
	if container != "scans" || key != "2024/march/doc.pdf" {
		t.Fatalf("parsed %q / %q", container, key)
	}

	if _, _, err := parseBlobURL("azblob://onlycontainer"); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, _, err := parseBlobURL("s3://bucket/key"); err == nil {
		t.Fatalf("expected error for foreign scheme")
	}
}
