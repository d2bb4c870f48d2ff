package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/wordtiles/internal/storage"
)

// Fetcher turns a document reference into a local file.
type Fetcher struct {
	HTTPClient *http.Client
	// S3 is created lazily for s3:// references when nil.
	S3        *storage.S3Client
	S3Options storage.Options
	// Password decrypts enveloped S3 objects.
	Password string
}

// Resolve returns a local path for ref and a cleanup func that removes any
// temporary download. Supported forms:
//   - plain filesystem paths and file://path
//   - http(s):// URLs (downloaded to temp)
//   - s3://bucket/key (downloaded to temp via AWS SDK v2)
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		p, err := f.downloadS3(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, err := f.downloadHTTP(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	default:
		return ref, noop, nil
	}
}

func (f *Fetcher) downloadHTTP(ctx context.Context, url string) (string, error) {
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "wordtiles-*"+extOf(url))
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	log.Info().Str("url", url).Str("file", filepath.Base(tmp.Name())).Msg("downloaded document to temp")
	return tmp.Name(), nil
}

func (f *Fetcher) downloadS3(ctx context.Context, ref string) (string, error) {
	path := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	bucket, key := path[:slash], path[slash+1:]

	cli := f.S3
	if cli == nil {
		opts := f.S3Options
		opts.Bucket = bucket
		c, err := storage.NewS3Client(ctx, opts)
		if err != nil {
			return "", err
		}
		cli = c
	}
	cli = cli.WithBucket(bucket)

	tmp, err := os.CreateTemp("", "wordtiles-s3-*"+extOf(key))
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := cli.DownloadTo(ctx, key, f.Password, tmp); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(tmp.Name())).Msg("downloaded s3 document to temp")
	return tmp.Name(), nil
}

// extOf keeps the reference's extension so type sniffing can use it.
func extOf(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return strings.ToLower(filepath.Ext(ref))
}
