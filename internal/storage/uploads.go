package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// mimeByExtension pairs each accepted extension with the content types a
// browser is expected to declare for it. An upload must pass both checks.
var mimeByExtension = map[string][]string{
	".jpeg": {"image/jpeg"},
	".jpg":  {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".mp4":  {"video/mp4"},
	".mov":  {"video/quicktime"},
	".avi":  {"video/x-msvideo", "video/avi"},
	".mkv":  {"video/x-matroska"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
}

// UploadStore persists ticket attachments under a flat directory with
// generated names, so requester supplied filenames never touch the disk.
type UploadStore struct {
	dir      string
	maxBytes int64
	allowed  map[string]bool
	logger   *zap.Logger
}

// NewUploadStore creates the upload directory if missing.
func NewUploadStore(cfg config.UploadConfig, logger *zap.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed["."+strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	return &UploadStore{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxSizeBytes,
		allowed:  allowed,
		logger:   logger,
	}, nil
}

// Save validates and persists a multipart upload, returning the stored
// filename. Validation failures surface as domain errors before anything is
// written.
func (s *UploadStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxBytes {
		return "", util.NewPayloadTooLarge("attachment exceeds the maximum allowed size")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.allowed[ext] {
		return "", util.NewUnsupportedAttachment("attachment type is not allowed")
	}
	declared := strings.ToLower(strings.TrimSpace(strings.Split(file.Header.Get("Content-Type"), ";")[0]))
	if !mimeAllowed(ext, declared) {
		return "", util.NewUnsupportedAttachment("attachment content type does not match its extension")
	}

	name := uuid.NewString() + ext
	if err := s.copyToDisk(file, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *UploadStore) copyToDisk(file *multipart.FileHeader, name string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1)); err != nil {
		return fmt.Errorf("write attachment file: %w", err)
	}
	return nil
}

// Remove deletes a stored attachment. Missing files are not an error.
func (s *UploadStore) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove attachment", zap.String("file", name), zap.Error(err))
	}
}

// Path returns the on-disk path for a stored attachment name.
func (s *UploadStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func mimeAllowed(ext, declared string) bool {
	if declared == "" || declared == "application/octet-stream" {
		// some clients omit or generalize the content type; the extension
		// check already gates these
		return true
	}
	for _, mt := range mimeByExtension[ext] {
		if mt == declared {
			return true
		}
	}
	return false
}
