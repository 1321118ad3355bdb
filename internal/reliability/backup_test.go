package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackupServiceDisabledWithoutBucket(t *testing.T) {
	svc, err := NewBackupService(Config{}, "/tmp/whatever.db", zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestBuildArchiveRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sinyal.db")
	payload := []byte("not a real database, but enough to archive")
	require.NoError(t, os.WriteFile(dbPath, payload, 0644))

	svc := &BackupService{dbPath: dbPath, log: zerolog.Nop()}

	archive, meta, err := svc.buildArchive()
	require.NoError(t, err)

	assert.Equal(t, "sinyal.db", meta.Database)
	assert.Equal(t, int64(len(payload)), meta.SizeBytes)

	sum := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.Checksum)

	// unpack and compare contents
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "sinyal.db", hdr.Name)

	extracted, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, payload, extracted)

	_, err = tr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBuildArchiveMissingDatabase(t *testing.T) {
	svc := &BackupService{dbPath: filepath.Join(t.TempDir(), "missing.db"), log: zerolog.Nop()}

	_, _, err := svc.buildArchive()
	assert.Error(t, err)
}
