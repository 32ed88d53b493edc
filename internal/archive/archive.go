package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"clipstudio/internal/config"
	"clipstudio/internal/logging"
	"clipstudio/internal/services"
)

const (
	downloadTimeout = 5 * time.Minute
	maxErrorBody    = 1024
)

// Uploader is the subset of *s3.Client used for archiving.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver downloads a video and stores it under bucket/prefix.
type Archiver struct {
	client     Uploader
	httpClient *http.Client
	bucket     string
	prefix     string
	logger     *slog.Logger
}

// New builds an S3 archiver from cfg. It returns nil when archiving is
// disabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Archiver, error) {
	if cfg == nil || !cfg.Archive.Enabled {
		return nil, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Archive.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "load aws config", "", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), nil, cfg.Archive.Bucket, cfg.Archive.Prefix, logger), nil
}

// NewWithClient builds an archiver over an existing uploader. A nil
// httpClient uses a client with a five minute timeout.
func NewWithClient(client Uploader, httpClient *http.Client, bucket, prefix string, logger *slog.Logger) *Archiver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: downloadTimeout}
	}
	return &Archiver{
		client:     client,
		httpClient: httpClient,
		bucket:     strings.TrimSpace(bucket),
		prefix:     strings.Trim(strings.TrimSpace(prefix), "/"),
		logger:     logging.NewComponentLogger(logger, "archive"),
	}
}

// Key returns the object key for a record.
func (a *Archiver) Key(sessionID, recordID string) string {
	return path.Join(a.prefix, sessionID, recordID+".mp4")
}

// Archive copies sourceURL to S3 and returns the s3:// URL of the object.
func (a *Archiver) Archive(ctx context.Context, sessionID, recordID, sourceURL string) (string, error) {
	if a == nil {
		return "", nil
	}
	if strings.TrimSpace(sourceURL) == "" || strings.TrimSpace(recordID) == "" {
		return "", services.Wrap(services.ErrValidation, "archive", "archive", "source url and record id required", nil)
	}

	started := time.Now()
	file, size, err := a.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
		_ = os.Remove(file.Name())
	}()

	key := a.Key(sessionID, recordID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("video/mp4"),
		Metadata: map[string]string{
			"session-id": sessionID,
			"record-id":  recordID,
		},
	})
	if err != nil {
		return "", services.Wrap(services.ErrNetwork, "archive", "put object", key, err)
	}

	url := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	logging.WithContext(ctx, a.logger).Info("video archived",
		logging.String("record_id", recordID),
		logging.String("archive_url", url),
		logging.Int64("bytes", size),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "archive_uploaded"),
	)
	return url, nil
}

// download spools sourceURL to a temp file so the upload body is seekable.
func (a *Archiver) download(ctx context.Context, sourceURL string) (*os.File, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "archive", "download", "build request", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrNetwork, "archive", "download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, 0, services.Wrap(services.ErrNetwork, "archive", "download", fmt.Sprintf("source returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	tmp, err := os.CreateTemp("", "clipstudio-archive-*.mp4")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, resp.Body)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, services.Wrap(services.ErrNetwork, "archive", "download", "", err)
	}
	return tmp, size, nil
}
