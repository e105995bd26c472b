package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jonathan/career-path/internal/errs"
	"github.com/jonathan/career-path/internal/fetch"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader fetches résumé bytes from a local path, an http(s) URL or an
// s3://bucket/key URI. The S3 client is built on first use from the default
// AWS credential chain.
type Loader struct {
	// Endpoint overrides the S3 endpoint (R2, MinIO). Path-style addressing is used when set.
	Endpoint string
	// HTTP configures downloads of http(s) locations; nil uses fetch defaults.
	HTTP *fetch.Options

	mu     sync.Mutex
	client ObjectGetter
}

// NewLoader returns a Loader that talks to S3 at endpoint ("" for AWS).
func NewLoader(endpoint string) *Loader {
	return &Loader{Endpoint: endpoint}
}

// NewLoaderWithClient returns a Loader backed by an existing S3 client.
func NewLoaderWithClient(client ObjectGetter) *Loader {
	return &Loader{client: client}
}

// IsS3 reports whether location is an s3:// URI.
func IsS3(location string) bool {
	return strings.HasPrefix(strings.TrimSpace(location), s3Scheme)
}

// ParseS3 splits an s3://bucket/key URI.
func ParseS3(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(location), s3Scheme)
	if !ok {
		return "", "", &errs.InputError{Message: fmt.Sprintf("not an s3 URI: %q", location)}
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", &errs.InputError{Message: fmt.Sprintf("s3 URI needs a bucket and a key: %q", location)}
	}
	return bucket, key, nil
}

// Load returns the raw bytes stored at location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	if fetch.IsURL(strings.TrimSpace(location)) {
		result, err := fetch.URL(ctx, strings.TrimSpace(location), l.HTTP)
		if err != nil {
			return nil, err
		}
		return result.Body, nil
	}
	if !IsS3(location) {
		return readLocal(location)
	}

	bucket, key, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	client, err := l.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		var noBucket *s3types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, &errs.NotFoundError{Resource: "object", ID: location, Cause: err}
		}
		return nil, &errs.UpstreamError{Message: "failed to get object", Cause: err}
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, &errs.UpstreamError{Message: "failed to read object body", Cause: err}
	}
	return buf.Bytes(), nil
}

// LoadText fetches the PDF at location and extracts its text.
func (l *Loader) LoadText(ctx context.Context, location string) (string, error) {
	data, err := l.Load(ctx, location)
	if err != nil {
		return "", err
	}
	return Extract(data)
}

func (l *Loader) s3Client(ctx context.Context) (ObjectGetter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &errs.ConfigError{Message: "failed to load AWS configuration", Cause: err}
	}
	endpoint := l.Endpoint
	l.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return l.client, nil
}
