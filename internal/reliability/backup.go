// Package reliability contains operational safeguards around the data
// store, currently the cloud backup of the sqlite database.
package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Config holds backup target settings. An empty bucket disables backups.
type Config struct {
	Bucket    string
	Endpoint  string // S3-compatible endpoint (e.g. Cloudflare R2); empty for AWS
	AccessKey string
	SecretKey string
	Region    string
}

// Metadata describes one uploaded backup archive
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
}

// BackupService archives the sqlite database to S3-compatible storage.
// Registered as a daily scheduler job.
type BackupService struct {
	client *s3.Client
	bucket string
	dbPath string
	log    zerolog.Logger
}

// NewBackupService creates a backup service, or nil when no bucket is
// configured.
func NewBackupService(cfg Config, dbPath string, log zerolog.Logger) (*BackupService, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &BackupService{
		client: client,
		bucket: cfg.Bucket,
		dbPath: dbPath,
		log:    log.With().Str("service", "backup").Logger(),
	}, nil
}

// Name identifies the job in scheduler logs
func (s *BackupService) Name() string {
	return "backup"
}

// Run uploads a tar.gz archive of the database with a metadata sidecar.
// Object keys are timestamped so uploads never overwrite each other.
func (s *BackupService) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	archive, meta, err := s.buildArchive()
	if err != nil {
		return fmt.Errorf("failed to build backup archive: %w", err)
	}

	key := fmt.Sprintf("backups/sinyal-%s.tar.gz", meta.Timestamp.Format("20060102-150405"))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(archive),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key + ".meta.json"),
		Body:        bytes.NewReader(metaJSON),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload backup metadata: %w", err)
	}

	s.log.Info().
		Str("key", key).
		Int64("size_bytes", meta.SizeBytes).
		Str("checksum", meta.Checksum).
		Msg("Backup uploaded")

	return nil
}

// buildArchive produces the tar.gz payload and its metadata
func (s *BackupService) buildArchive() ([]byte, Metadata, error) {
	data, err := os.ReadFile(s.dbPath)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to read database file: %w", err)
	}

	sum := sha256.Sum256(data)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	hdr := &tar.Header{
		Name:    filepath.Base(s.dbPath),
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now().UTC(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(data)); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to write tar body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to close gzip: %w", err)
	}

	meta := Metadata{
		Timestamp: time.Now().UTC(),
		Database:  filepath.Base(s.dbPath),
		SizeBytes: int64(len(data)),
		Checksum:  hex.EncodeToString(sum[:]),
	}

	return buf.Bytes(), meta, nil
}
