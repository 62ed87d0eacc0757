package downloader

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-krea-generate/internal/helpers"

	log "github.com/sirupsen/logrus"
	"lukechampine.com/blake3"
)

// Custom Downloader Errors
var (
	ErrDownload   = errors.New("artifact download failed")
	ErrFileSystem = errors.New("filesystem error")
)

// Result describes a materialized artifact on disk.
type Result struct {
	LocalPath string
	Folder    string
	Size      uint64
	Checksum  string // BLAKE3 hex of the saved bytes
}

// Materializer downloads a completed job's artifact and persists it under a
// date-keyed folder. Downloads are single attempts; a non-2xx response is
// fatal.
type Materializer struct {
	client     *http.Client
	outputRoot string
	now        func() time.Time
}

// NewMaterializer creates a Materializer writing under outputRoot. A nil
// client gets a default suitable for large artifact downloads.
func NewMaterializer(client *http.Client, outputRoot string) *Materializer {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Materializer{
		client:     client,
		outputRoot: outputRoot,
		now:        time.Now,
	}
}

// SetNow overrides the clock used for output naming. Intended for tests.
func (m *Materializer) SetNow(now func() time.Time) {
	m.now = now
}

// ResolveExtension picks the output extension from the declared content type
// first, then the URL suffix, defaulting to .jpg.
func ResolveExtension(contentType, artifactUrl string) string {
	switch {
	case strings.Contains(contentType, "png") || strings.HasSuffix(artifactUrl, ".png"):
		return ".png"
	case strings.Contains(contentType, "webp") || strings.HasSuffix(artifactUrl, ".webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// Save downloads the artifact and writes it to
// {outputRoot}/{YYYY-MM-DD}/{HH-MM-SS}-{nameTag}.{ext}. When preferredExt is
// empty the extension is resolved from the response; enhancement jobs pass
// their requested output format instead.
func (m *Materializer) Save(artifactUrl, nameTag, preferredExt string) (Result, error) {
	req, err := http.NewRequest("GET", artifactUrl, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating request for %s: %v", ErrDownload, artifactUrl, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetching %s: %v", ErrDownload, artifactUrl, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: received status %d from %s", ErrDownload, resp.StatusCode, artifactUrl)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading %s: %v", ErrDownload, artifactUrl, err)
	}

	ext := preferredExt
	if ext == "" {
		ext = ResolveExtension(resp.Header.Get("Content-Type"), artifactUrl)
	}

	now := m.now()
	folder := filepath.Join(m.outputRoot, now.Format("2006-01-02"))
	if !helpers.CheckAndMakeDir(folder) {
		return Result{}, fmt.Errorf("%w: failed to create output directory %s", ErrFileSystem, folder)
	}

	filename := fmt.Sprintf("%s-%s%s", now.Format("15-04-05"), nameTag, ext)
	finalPath := filepath.Join(folder, filename)

	// Write via a temp file so a partial write never lands on the final name.
	tempFile, err := os.CreateTemp(folder, filename+".*.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating temporary file in %s: %v", ErrFileSystem, folder, err)
	}
	cleanupTemp := true
	defer func() {
		if cleanupTemp {
			if removeErr := os.Remove(tempFile.Name()); removeErr != nil {
				log.WithError(removeErr).Warnf("Failed to remove temporary file %s", tempFile.Name())
			}
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return Result{}, fmt.Errorf("%w: writing %s: %v", ErrFileSystem, tempFile.Name(), err)
	}
	if err := tempFile.Close(); err != nil {
		return Result{}, fmt.Errorf("%w: closing %s: %v", ErrFileSystem, tempFile.Name(), err)
	}
	if err := os.Rename(tempFile.Name(), finalPath); err != nil {
		return Result{}, fmt.Errorf("%w: renaming %s to %s: %v", ErrFileSystem, tempFile.Name(), finalPath, err)
	}
	cleanupTemp = false

	sum := blake3.Sum256(data)
	log.Infof("Image saved to: %s (%s)", finalPath, helpers.BytesToSize(uint64(len(data))))

	return Result{
		LocalPath: finalPath,
		Folder:    folder,
		Size:      uint64(len(data)),
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}
