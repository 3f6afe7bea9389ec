// Package output exports a finished report as gzipped JSON to the local
// filesystem or to S3.
package output

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/schollz/progressbar/v3"

	"ddbreport/internal/logging"
	"ddbreport/internal/report"
)

const (
	defaultMaxRetries        = 3
	defaultRetryDelay        = 2 * time.Second
	defaultPartSize          = 5 * 1024 * 1024 // 5MB
	defaultConcurrentUploads = 5
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// UploadConfig holds upload configuration
type UploadConfig struct {
	PartSize        int64
	ConcurrentParts int
}

// Type represents the output type
type Type string

const (
	// None disables the export
	None Type = "none"
	// FileSystem represents local filesystem output
	FileSystem Type = "filesystem"
	// S3 represents S3 bucket output
	S3 Type = "s3"
)

// ParseType validates an export target name
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case "", None:
		return None, nil
	case FileSystem, S3:
		return t, nil
	default:
		return "", fmt.Errorf("invalid save target %q: must be none, filesystem or s3", name)
	}
}

// Config holds output configuration
type Config struct {
	Type      Type
	S3Bucket  string
	S3Region  string
	OutputDir string
	Retry     *RetryConfig
	Upload    *UploadConfig
}

// Validate checks that the destination is fully specified
func (c Config) Validate() error {
	if c.Type == S3 && (c.S3Bucket == "" || c.S3Region == "") {
		return fmt.Errorf("--bucket and --bucket-region are required when saving to s3")
	}
	return nil
}

// Writer handles writing reports to different destinations
type Writer struct {
	config   Config
	uploader s3manageriface.UploaderAPI
	progress io.Writer
	now      func() time.Time
}

// NewWriter creates a new output writer with default settings. uploader is
// only used for S3 output and may be nil otherwise.
func NewWriter(config Config, uploader s3manageriface.UploaderAPI) *Writer {
	if config.Retry == nil {
		config.Retry = &RetryConfig{
			MaxRetries: defaultMaxRetries,
			RetryDelay: defaultRetryDelay,
		}
	}

	if config.Upload == nil {
		config.Upload = &UploadConfig{
			PartSize:        defaultPartSize,
			ConcurrentParts: defaultConcurrentUploads,
		}
	}

	if config.Type == FileSystem && config.OutputDir == "" {
		config.OutputDir = "output"
	}
	return &Writer{
		config:   config,
		uploader: uploader,
		progress: os.Stderr,
		now:      time.Now,
	}
}

// NewUploader creates an S3 uploader sized by the upload config
func NewUploader(client s3iface.S3API, config *UploadConfig) s3manageriface.UploaderAPI {
	if config == nil {
		config = &UploadConfig{PartSize: defaultPartSize, ConcurrentParts: defaultConcurrentUploads}
	}
	return s3manager.NewUploaderWithClient(client, func(u *s3manager.Uploader) {
		u.PartSize = config.PartSize
		u.Concurrency = config.ConcurrentParts
	})
}

// accountSegment keeps only the numeric part of a compound account id
func accountSegment(accountID string) string {
	parts := strings.Split(accountID, "-")
	if id := strings.TrimSpace(parts[0]); id != "" {
		return id
	}
	return "unknown"
}

// objectPath returns the export path in the format:
// filesystem: output/YYYY/MM/DD/<accountId>/<kind>-HH-MM-SS-0700.json.gz
// s3: YYYY/MM/DD/<accountId>/<kind>-HH-MM-SS-0700.json.gz
func (w *Writer) objectPath(accountID string, kind report.Kind, t time.Time) string {
	fileName := fmt.Sprintf("%s-%s.json.gz", kind, t.Format("15-04-05-0700"))
	key := path.Join(t.Format("2006/01/02"), accountSegment(accountID), fileName)

	if w.config.Type == FileSystem {
		return filepath.Join(w.config.OutputDir, filepath.FromSlash(key))
	}
	return key
}

// compressData compresses the input data using gzip
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write to gzip writer: %w", err)
	}

	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Write exports rpt to the configured destination and returns where it went
func (w *Writer) Write(accountID string, rpt report.Report) (string, error) {
	data, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	compressed, err := compressData(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress report: %w", err)
	}

	dest := w.objectPath(accountID, rpt.Kind, w.now())

	switch w.config.Type {
	case FileSystem:
		if err := writeToFileSystem(dest, compressed); err != nil {
			return "", err
		}
		return dest, nil
	case S3:
		if err := w.writeToS3WithRetry(dest, compressed); err != nil {
			return "", err
		}
		return fmt.Sprintf("s3://%s/%s", w.config.S3Bucket, dest), nil
	default:
		return "", fmt.Errorf("unsupported output type: %s", w.config.Type)
	}
}

// writeToFileSystem writes compressed data to the local filesystem
func writeToFileSystem(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", dest, err)
	}

	return nil
}

// writeToS3WithRetry writes data to an S3 bucket with retry logic
func (w *Writer) writeToS3WithRetry(key string, data []byte) error {
	if w.config.S3Bucket == "" {
		return fmt.Errorf("S3 bucket not specified")
	}
	if w.uploader == nil {
		return fmt.Errorf("S3 uploader not configured")
	}

	var lastErr error
	for attempt := 0; attempt < w.config.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Retrying S3 upload", map[string]interface{}{
				"attempt": attempt + 1,
				"max":     w.config.Retry.MaxRetries,
				"error":   lastErr.Error(),
			})
			time.Sleep(w.config.Retry.RetryDelay)
		}

		if err := w.writeToS3(key, data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to upload to S3 after %d attempts: %w",
		w.config.Retry.MaxRetries, lastErr)
}

// writeToS3 writes data to an S3 bucket with progress tracking
func (w *Writer) writeToS3(key string, data []byte) error {
	reader := &progressReader{
		reader: bytes.NewReader(data),
		bar: progressbar.NewOptions64(
			int64(len(data)),
			progressbar.OptionSetWriter(w.progress),
			progressbar.OptionSetDescription("Uploading to S3..."),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(w.progress)
			}),
		),
	}

	_, err := w.uploader.Upload(&s3manager.UploadInput{
		Bucket:               aws.String(w.config.S3Bucket),
		Key:                  aws.String(key),
		Body:                 reader,
		ContentType:          aws.String("application/json"),
		ContentEncoding:      aws.String("gzip"),
		ServerSideEncryption: aws.String("aws:kms"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

// progressReader wraps an io.Reader to track progress
type progressReader struct {
	reader io.Reader
	bar    *progressbar.ProgressBar
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if barErr := r.bar.Add(n); barErr != nil {
		logging.Debug("Progress bar update failed", map[string]interface{}{"error": barErr.Error()})
	}
	return n, err
}
