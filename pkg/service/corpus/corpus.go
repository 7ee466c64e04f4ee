package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/insurdesk/concierge/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

type options struct {
	gcsOptions []option.ClientOption
}

type Option func(*options)

// WithGCSOptions passes client options to the Cloud Storage client
func WithGCSOptions(opts ...option.ClientOption) Option {
	return func(o *options) {
		o.gcsOptions = append(o.gcsOptions, opts...)
	}
}

// Open returns a reader for a local path or a gs://bucket/object location.
// The caller closes the reader.
func Open(ctx context.Context, location string, opts ...Option) (io.ReadCloser, error) {
	if location == "" {
		return nil, goerr.Wrap(model.ErrValidation, "corpus location is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if strings.HasPrefix(location, gcsScheme) {
		return openGCS(ctx, location, o.gcsOptions)
	}

	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "corpus file not found", goerr.V("location", location))
		}
		return nil, goerr.Wrap(err, "failed to open corpus file", goerr.V("location", location))
	}
	return f, nil
}

// ParseGCSLocation splits gs://bucket/path/to/object
func ParseGCSLocation(location string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(location, gcsScheme)
	if !ok {
		return "", "", goerr.Wrap(model.ErrValidation, "not a gs:// location", goerr.V("location", location))
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.Wrap(model.ErrValidation, "gs:// location needs bucket and object", goerr.V("location", location))
	}
	return bucket, object, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	return errors.Join(r.Reader.Close(), r.client.Close())
}

func openGCS(ctx context.Context, location string, clientOpts []option.ClientOption) (io.ReadCloser, error) {
	bucket, object, err := ParseGCSLocation(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "corpus object not found",
				goerr.V("bucket", bucket), goerr.V("object", object))
		}
		return nil, goerr.Wrap(err, "failed to open corpus object",
			goerr.V("bucket", bucket), goerr.V("object", object))
	}

	return &gcsReader{Reader: reader, client: client}, nil
}
