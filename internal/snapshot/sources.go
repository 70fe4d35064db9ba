package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/httputil"
	"github.com/wonny/vnequity/pkg/objectstore"
)

// formats are tried in order when locating a table
var formats = []Format{FormatCSV, FormatXLSX}

// LocalSource reads <dir>/<kind>_analysis.{csv,xlsx}
type LocalSource struct {
	dir string
}

// NewLocalSource creates a source over a directory
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) Name() string { return "local" }

func (s *LocalSource) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range formats {
		path := filepath.Join(s.dir, FileName(kind, f))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if f == FormatXLSX {
			return DecodeXLSXFile(path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return Decode(f, data)
	}
	return nil, fmt.Errorf("%s snapshot not found in %s", kind, s.dir)
}

// ObjectSource reads tables from an object store (S3 in production)
type ObjectSource struct {
	store objectstore.Store
}

// NewObjectSource creates a source over an object store
func NewObjectSource(store objectstore.Store) *ObjectSource {
	return &ObjectSource{store: store}
}

func (s *ObjectSource) Name() string { return "s3" }

func (s *ObjectSource) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	for _, f := range formats {
		data, err := s.store.Read(ctx, FileName(kind, f))
		if errors.Is(err, objectstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
		}
		return Decode(f, data)
	}
	return nil, fmt.Errorf("%s snapshot not found in object store", kind)
}

// HTTPSource fetches <base>/<kind>_analysis.csv
type HTTPSource struct {
	client  *httputil.Client
	baseURL string
}

// NewHTTPSource creates a source over a static file server
func NewHTTPSource(client *httputil.Client, baseURL string) *HTTPSource {
	return &HTTPSource{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Load(ctx context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	var lastErr error
	for _, f := range formats {
		data, err := s.client.GetBytes(ctx, s.baseURL+"/"+FileName(kind, f))
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s snapshot: %w", kind, err)
		}
		return Decode(f, data)
	}
	return nil, fmt.Errorf("%s snapshot not found at %s: %w", kind, s.baseURL, lastErr)
}
