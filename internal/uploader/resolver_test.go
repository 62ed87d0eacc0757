package uploader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-krea-generate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUrl(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/image.png", true},
		{"http://example.com/image.png", true},
		{"ftp://example.com/image.png", false},
		{"/tmp/image.png", false},
		{"image.png", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsUrl(tt.input), "IsUrl(%q)", tt.input)
	}
}

func TestResolveUrlPassthrough(t *testing.T) {
	// No Uploader attached: resolving a URL must not touch it.
	r := &Resolver{}
	for _, u := range []string{
		"https://cdn.krea.ai/abc.png",
		"http://example.com/photo.webp",
	} {
		got, err := r.Resolve(u)
		require.NoError(t, err)
		assert.Equal(t, u, got.URL)
		assert.False(t, got.Uploaded)
	}
}

func TestResolveMissingFile(t *testing.T) {
	r := &Resolver{Uploader: NewUploader(models.Config{})}
	_, err := r.Resolve(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveDirectoryIsInvalid(t *testing.T) {
	r := &Resolver{Uploader: NewUploader(models.Config{})}
	_, err := r.Resolve(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveLocalFileRequiresConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0644))

	// Existing file with no FTP config fails before any network attempt.
	r := &Resolver{Uploader: NewUploader(models.Config{})}
	_, err := r.Resolve(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCheckConfiguredReportsMissingFields(t *testing.T) {
	u := NewUploader(models.Config{FtpHost: "ftp.example.com", FtpUser: "user"})
	err := u.checkConfigured()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "FTP_PASS")
	assert.Contains(t, err.Error(), "FTP_PUBLIC_URL")
	assert.NotContains(t, err.Error(), "FTP_HOST")

	full := NewUploader(models.Config{
		FtpHost: "ftp.example.com", FtpUser: "user", FtpPass: "pass",
		FtpPublicUrl: "https://static.example.com/uploads",
	})
	assert.NoError(t, full.checkConfigured())
}

func TestRemoteName(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := RemoteName("/tmp/source.jpg")
		assert.True(t, strings.HasSuffix(name, ".jpg"), "name %q keeps extension", name)
		assert.Len(t, name, 12+len(".jpg"))
		assert.False(t, seen[name], "name %q collided", name)
		seen[name] = true
	}
}

func TestRemoteNameDefaultExtension(t *testing.T) {
	name := RemoteName("/tmp/no-extension")
	assert.True(t, strings.HasSuffix(name, ".png"), "got %q", name)
}
