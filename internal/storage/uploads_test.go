package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func newTestStore(t *testing.T, maxBytes int64) *UploadStore {
	t.Helper()
	store, err := NewUploadStore(config.UploadConfig{
		Dir:               t.TempDir(),
		MaxSizeBytes:      maxBytes,
		AllowedExtensions: []string{"jpg", "png", "pdf", "txt"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("new upload store: %v", err)
	}
	return store
}

// fileHeader builds a real multipart.FileHeader the way fiber would hand it
// to the handler, including the part's declared content type.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="attachment"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart form: %v", err)
	}
	files := req.MultipartForm.File["attachment"]
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	return files[0]
}

func TestSaveAllowedFile(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	name, err := store.Save(fileHeader(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 test")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Errorf("stored name %q should keep the extension", name)
	}
	if strings.Contains(name, "report") {
		t.Errorf("stored name %q should not contain the client filename", name)
	}
	data, err := os.ReadFile(store.Path(name))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "%PDF-1.4 test" {
		t.Errorf("stored content = %q", data)
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	_, err := store.Save(fileHeader(t, "payload.exe", "application/octet-stream", []byte("MZ")))
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusUnsupportedMediaType {
		t.Fatalf("err = %v, want unsupported media type", err)
	}
}

func TestSaveRejectsMismatchedContentType(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	// allowed extension, but the declared type says it is something else
	_, err := store.Save(fileHeader(t, "image.png", "text/html", []byte("<html>")))
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusUnsupportedMediaType {
		t.Fatalf("err = %v, want unsupported media type", err)
	}
}

func TestSaveAcceptsGenericContentType(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	// octet-stream and empty declarations fall back to the extension check
	if _, err := store.Save(fileHeader(t, "notes.txt", "application/octet-stream", []byte("hello"))); err != nil {
		t.Errorf("octet-stream declaration rejected: %v", err)
	}
	if _, err := store.Save(fileHeader(t, "notes.txt", "", []byte("hello"))); err != nil {
		t.Errorf("missing declaration rejected: %v", err)
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 64)

	_, err := store.Save(fileHeader(t, "big.txt", "text/plain", bytes.Repeat([]byte("x"), 65)))
	var domainErr *util.DomainError
	if !errors.As(err, &domainErr) || domainErr.HTTPStatus != http.StatusRequestEntityTooLarge {
		t.Fatalf("err = %v, want payload too large", err)
	}
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	store.Remove("never-stored.pdf")
	store.Remove("")
}

func TestPathStripsDirectoryTraversal(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 1024)

	path := store.Path("../../etc/passwd")
	if filepath.Dir(path) != store.dir {
		t.Errorf("path %q escapes the upload dir", path)
	}
}
