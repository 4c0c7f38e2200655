package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/storage"

	"github.com/docsift/docsift/internal/common"
)

// Scheme marks a cloud-blob-addressed source: azblob://container/path/to.pdf
const Scheme = "azblob"

// Resolver turns a source string into a local file path. Local paths pass
// through untouched; azblob URLs are downloaded to a temp file.
type Resolver struct {
	accountName string
	accountKey  string
	logger      *slog.Logger
}

func NewResolver(cfg common.BlobConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		accountName: cfg.AccountName,
		accountKey:  cfg.AccountKey,
		logger:      logger,
	}
}

// IsBlobURL reports whether the source names a cloud blob rather than a
// local file.
func IsBlobURL(source string) bool {
	return strings.HasPrefix(source, Scheme+"://")
}

// Resolve returns a local path for the source plus a cleanup func for any
// temp file it created. Cleanup is never nil.
func (r *Resolver) Resolve(ctx context.Context, source string) (string, func(), error) {
	noop := func() {}
	if !IsBlobURL(source) {
		if _, err := os.Stat(source); err != nil {
			return "", noop, common.NewAppError("SOURCE_NOT_FOUND", source, common.ErrNotFound)
		}
		return source, noop, nil
	}

	container, key, err := parseBlobURL(source)
	if err != nil {
		return "", noop, err
	}
	if r.accountName == "" || r.accountKey == "" {
		return "", noop, common.NewAppError("BLOB_CONFIG", "azure storage credentials are required for blob sources", common.ErrInvalidInput)
	}

	select {
	case <-ctx.Done():
		return "", noop, ctx.Err()
	default:
	}

	start := time.Now()
	client, err := storage.NewBasicClient(r.accountName, r.accountKey)
	if err != nil {
		return "", noop, fmt.Errorf("azure storage client: %w", err)
	}
	blobService := client.GetBlobService()
	blobRef := blobService.GetContainerReference(container).GetBlobReference(key)

	rc, err := blobRef.Get(nil)
	if err != nil {
		r.logger.Error("blob.fetch.failed", "container", container, "key", key, "error", err)
		return "", noop, fmt.Errorf("fetch blob %s: %w", source, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.CreateTemp("", "docsift-blob-*"+filepath.Ext(key))
	if err != nil {
		return "", noop, fmt.Errorf("temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(out.Name()) }

	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download blob %s: %w", source, err)
	}

	r.logger.Info("blob.fetch.ok",
		"container", container,
		"key", key,
		"bytes", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Name(), cleanup, nil
}

func parseBlobURL(source string) (container, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parse blob url: %w", err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	container = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if container == "" || key == "" {
		return "", "", fmt.Errorf("blob url must be %s://container/key, got %q", Scheme, source)
	}
	return container, key, nil
}
