package uploader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-krea-generate/internal/models"

	"github.com/google/uuid"
	"github.com/jlaffaye/ftp"
	log "github.com/sirupsen/logrus"
)

// Custom Error Types
var (
	ErrConfiguration = errors.New("FTP upload not configured")
	ErrInvalidInput  = errors.New("invalid image path (not a URL or existing file)")
	ErrUpload        = errors.New("FTP upload failed")
)

// Uploader transfers local source images to an FTP host so the remote
// service can fetch them by public URL.
type Uploader struct {
	Host       string
	Port       int
	User       string
	Pass       string
	RemotePath string
	PublicUrl  string
	Timeout    time.Duration
}

// NewUploader creates an Uploader from config. Configuration is validated on
// Upload, not here, so commands that never touch local files don't need FTP.
func NewUploader(cfg models.Config) *Uploader {
	return &Uploader{
		Host:       cfg.FtpHost,
		Port:       cfg.FtpPort,
		User:       cfg.FtpUser,
		Pass:       cfg.FtpPass,
		RemotePath: cfg.FtpRemotePath,
		PublicUrl:  cfg.FtpPublicUrl,
		Timeout:    30 * time.Second,
	}
}

func (u *Uploader) checkConfigured() error {
	var missing []string
	if u.Host == "" {
		missing = append(missing, "FTP_HOST")
	}
	if u.User == "" {
		missing = append(missing, "FTP_USER")
	}
	if u.Pass == "" {
		missing = append(missing, "FTP_PASS")
	}
	if u.PublicUrl == "" {
		missing = append(missing, "FTP_PUBLIC_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// RemoteName generates a collision-resistant remote filename for a local
// file, preserving its extension (default .png when it has none). The source
// filename is never reused, so repeated uploads cannot overwrite each other.
func RemoteName(localPath string) string {
	ext := filepath.Ext(localPath)
	if ext == "" {
		ext = ".png"
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:12] + ext
}

// Upload transfers the file in binary mode and returns its public URL.
func (u *Uploader) Upload(localPath string) (string, error) {
	if err := u.checkConfigured(); err != nil {
		return "", err
	}
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, localPath)
	}

	remoteName := RemoteName(localPath)
	log.Infof("Uploading %s to FTP server...", filepath.Base(localPath))

	conn, err := ftp.Dial(fmt.Sprintf("%s:%d", u.Host, u.Port), ftp.DialWithTimeout(u.Timeout))
	if err != nil {
		return "", fmt.Errorf("%w: connecting to %s: %v", ErrUpload, u.Host, err)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			log.WithError(err).Debug("Error closing FTP connection")
		}
	}()

	if err := conn.Login(u.User, u.Pass); err != nil {
		return "", fmt.Errorf("%w: login failed: %v", ErrUpload, err)
	}
	if err := conn.Type(ftp.TransferTypeBinary); err != nil {
		return "", fmt.Errorf("%w: setting binary mode: %v", ErrUpload, err)
	}

	if err := u.enterRemoteDir(conn); err != nil {
		return "", err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", ErrUpload, localPath, err)
	}
	defer f.Close()

	if err := conn.Stor(remoteName, f); err != nil {
		return "", fmt.Errorf("%w: storing %s: %v", ErrUpload, remoteName, err)
	}

	publicUrl := strings.TrimRight(u.PublicUrl, "/") + "/" + remoteName
	log.Infof("Uploaded to: %s", publicUrl)
	return publicUrl, nil
}

// enterRemoteDir changes into the configured remote path, creating missing
// segments as needed. Pre-existing directories are fine; a segment that can
// neither be created nor entered is an upload failure.
func (u *Uploader) enterRemoteDir(conn *ftp.ServerConn) error {
	remoteDir := strings.TrimRight(u.RemotePath, "/")
	if remoteDir == "" {
		return nil
	}
	if err := conn.ChangeDir(remoteDir); err == nil {
		return nil
	}

	current := ""
	for _, part := range strings.Split(strings.Trim(remoteDir, "/"), "/") {
		current = current + "/" + part
		if err := conn.ChangeDir(current); err == nil {
			continue
		}
		mkErr := conn.MakeDir(current)
		if err := conn.ChangeDir(current); err != nil {
			if mkErr != nil {
				return fmt.Errorf("%w: creating remote directory %s: %v", ErrUpload, current, mkErr)
			}
			return fmt.Errorf("%w: entering remote directory %s: %v", ErrUpload, current, err)
		}
	}
	return nil
}
