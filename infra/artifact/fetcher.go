// Package artifact resolves and loads the co-versioned model and encoder
// artifacts. Artifacts may live on local disk, in S3 or behind HTTP; remote
// artifacts are downloaded once into a local cache directory.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kilianp07/deliveryeta/core/logger"
)

// S3API is the subset of the S3 client used by the fetcher.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher resolves artifact URIs to local files.
type Fetcher struct {
	cacheDir string
	http     *http.Client
	region   string
	log      logger.Logger

	mu sync.Mutex
	s3 S3API
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the client used for http(s) URIs.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithS3Client sets the S3 client instead of loading the default AWS config.
func WithS3Client(c S3API) Option {
	return func(f *Fetcher) { f.s3 = c }
}

// WithRegion sets the AWS region used when the S3 client is created lazily.
func WithRegion(r string) Option {
	return func(f *Fetcher) { f.region = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher returns a Fetcher caching remote artifacts under cacheDir.
func NewFetcher(cacheDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		cacheDir: cacheDir,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      logger.Nop{},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch returns a local path for uri. Local paths and file:// URIs are
// returned as is; s3:// and http(s):// URIs are downloaded unless already
// cached.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse artifact uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "", "file":
		p := uri
		if u.Scheme == "file" {
			p = u.Path
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("artifact %s: %w", p, err)
		}
		return p, nil
	case "s3", "http", "https":
	default:
		return "", fmt.Errorf("unsupported artifact scheme %q", u.Scheme)
	}

	if f.cacheDir == "" {
		return "", errors.New("artifact cache directory is not configured")
	}
	dst := filepath.Join(f.cacheDir, u.Scheme, u.Host, filepath.FromSlash(strings.TrimPrefix(u.Path, "/")))
	if _, err := os.Stat(dst); err == nil {
		f.log.Debugf("artifact %s already cached at %s", uri, dst)
		return dst, nil
	}

	var body io.ReadCloser
	if u.Scheme == "s3" {
		body, err = f.openS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	} else {
		body, err = f.openHTTP(ctx, uri)
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()
	if err := writeAtomic(dst, body); err != nil {
		return "", err
	}
	f.log.Infof("downloaded artifact %s to %s", uri, dst)
	return dst, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", uri, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", uri, resp.Status)
	}
	return resp.Body, nil
}

func (f *Fetcher) openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	client, err := f.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

func (f *Fetcher) s3Client(ctx context.Context) (S3API, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.s3 != nil {
		return f.s3, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if f.region != "" {
		opts = append(opts, awsconfig.WithRegion(f.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	f.s3 = s3.NewFromConfig(cfg)
	return f.s3, nil
}

// writeAtomic copies r into a temporary file next to dst and renames it so
// readers never observe a partial artifact.
func writeAtomic(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
