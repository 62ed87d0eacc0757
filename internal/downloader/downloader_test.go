package downloader

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestResolveExtension(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        string
	}{
		{"PNG content type", "image/png", "https://cdn.example.com/x", ".png"},
		{"WebP content type", "image/webp", "https://cdn.example.com/x", ".webp"},
		{"PNG url suffix", "", "https://cdn.example.com/x.png", ".png"},
		{"WebP url suffix", "application/octet-stream", "https://cdn.example.com/x.webp", ".webp"},
		{"JPEG default", "image/jpeg", "https://cdn.example.com/x", ".jpg"},
		{"Unknown defaults to jpg", "", "https://cdn.example.com/x.bin", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveExtension(tt.contentType, tt.url))
		})
	}
}

func TestSaveWritesDatedPath(t *testing.T) {
	content := []byte("fake image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(content)
	}))
	defer srv.Close()

	root := t.TempDir()
	m := NewMaterializer(srv.Client(), root)
	fixed := time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)
	m.SetNow(func() time.Time { return fixed })

	res, err := m.Save(srv.URL+"/artifact", "nano-a-red-bicycle", "")
	require.NoError(t, err)

	wantFolder := filepath.Join(root, "2026-08-25")
	assert.Equal(t, wantFolder, res.Folder)
	assert.Equal(t, filepath.Join(wantFolder, "14-30-05-nano-a-red-bicycle.png"), res.LocalPath)

	data, err := os.ReadFile(res.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, uint64(len(content)), res.Size)

	sum := blake3.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Checksum)

	// No leftover temp files.
	entries, err := os.ReadDir(wantFolder)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSavePreferredExtensionWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "bytes")
	}))
	defer srv.Close()

	m := NewMaterializer(srv.Client(), t.TempDir())
	fixed := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return fixed })

	res, err := m.Save(srv.URL, "upscale-2x", ".webp")
	require.NoError(t, err)
	assert.Equal(t, "09-00-00-upscale-2x.webp", filepath.Base(res.LocalPath))
}

func TestSaveNonOkStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewMaterializer(srv.Client(), t.TempDir())
	_, err := m.Save(srv.URL, "nano-x", "")
	assert.ErrorIs(t, err, ErrDownload)
}

func TestSaveSingleAttempt(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMaterializer(srv.Client(), t.TempDir())
	_, err := m.Save(srv.URL, "nano-x", "")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
