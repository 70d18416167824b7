package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

// Storage writes export documents to a Cloud Storage bucket
type Storage struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ExportArchiver = &Storage{}

type Option func(*Storage)

// WithPrefix places every object under the given path prefix
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// New creates a Cloud Storage archiver using application default credentials
func New(ctx context.Context, bucket string, opts ...Option) (*Storage, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}

	s := &Storage{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put writes data as a JSON object and returns its gs:// URL
func (s *Storage) Put(ctx context.Context, name string, data []byte) (string, error) {
	object := objectName(s.prefix, name)

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write object", goerr.V("bucket", s.bucket), goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", s.bucket), goerr.V("object", object))
	}

	logging.From(ctx).Debug("object written", "bucket", s.bucket, "object", object, "size", len(data))
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Close releases the underlying client
func (s *Storage) Close() error {
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Cloud Storage client")
	}
	return nil
}

func objectName(prefix, name string) string {
	name = strings.TrimLeft(name, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
