package upload

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
	"time"

	"backend-picfeed/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
)

const tenMB = 10000000

// multipartBody builds a request body with a single file part.
func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func fileHeader(t *testing.T, field, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	body, ct := multipartBody(t, field, filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	files := req.MultipartForm.File[field]
	if len(files) != 1 {
		t.Fatalf("expected one file")
	}
	return files[0]
}

func TestValidateRejectsNonImages(t *testing.T) {
	store := NewStore(t.TempDir(), tenMB)

	cases := []struct {
		name        string
		filename    string
		contentType string
	}{
		{"txt extension", "notes.txt", "image/png"},
		{"text mime", "photo.png", "text/plain"},
		{"both wrong", "notes.txt", "text/plain"},
		{"no extension", "photo", "image/png"},
		{"pdf", "doc.pdf", "application/pdf"},
	}
	for _, tc := range cases {
		fh := fileHeader(t, "image", tc.filename, tc.contentType, []byte("data"))
		err := store.Validate(fh)
		if apperr.KindOf(err) != apperr.KindInvalidUpload {
			t.Fatalf("%s: expected invalid upload, got %v", tc.name, err)
		}
	}
}

func TestValidateAcceptsImageTypes(t *testing.T) {
	store := NewStore(t.TempDir(), tenMB)

	for _, tc := range [][2]string{
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.gif", "image/gif"},
		{"a.jpg", "image/jpg"},
	} {
		fh := fileHeader(t, "image", tc[0], tc[1], []byte("data"))
		if err := store.Validate(fh); err != nil {
			t.Fatalf("%s (%s): unexpected error %v", tc[0], tc[1], err)
		}
	}
}

func TestValidateSizeLimit(t *testing.T) {
	store := NewStore(t.TempDir(), tenMB)

	fh := fileHeader(t, "image", "big.png", "image/png", []byte("data"))
	fh.Size = 15 * 1000 * 1000
	if err := store.Validate(fh); apperr.KindOf(err) != apperr.KindInvalidUpload {
		t.Fatalf("expected 15MB image to be rejected, got %v", err)
	}

	fh.Size = 2 * 1000 * 1000
	if err := store.Validate(fh); err != nil {
		t.Fatalf("expected 2MB image to be accepted, got %v", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	store := NewStore(t.TempDir(), tenMB)
	if err := store.Validate(nil); apperr.KindOf(err) != apperr.KindMissingFile {
		t.Fatalf("expected missing file, got %v", err)
	}
}

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, tenMB)

	oldNow := nowFn
	nowFn = func() time.Time { return time.Unix(0, 1700000000123456789) }
	defer func() { nowFn = oldNow }()

	data := bytes.Repeat([]byte{0x89}, 2*1000*1000)
	fh := fileHeader(t, "image", "Holiday.PNG", "image/png", data)

	name, err := store.Save(fh, "image")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name != "image-1700000000123456789.png" {
		t.Fatalf("unexpected filename %q", name)
	}
	stored, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read stored: %v", err)
	}
	if len(stored) != len(data) {
		t.Fatalf("expected %d bytes, got %d", len(data), len(stored))
	}
	if url := PublicURL("http://host:3333/", name); url != "http://host:3333/uploads/"+name {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestSaveRejectsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, tenMB)

	fh := fileHeader(t, "image", "notes.txt", "text/plain", []byte("hi"))
	if _, err := store.Save(fh, "image"); apperr.KindOf(err) != apperr.KindInvalidUpload {
		t.Fatalf("expected invalid upload, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestSaveWriteFailure(t *testing.T) {
	store := NewStore(t.TempDir(), tenMB)

	oldSave := saveFileFn
	saveFileFn = func(*multipart.FileHeader, string) error { return errors.New("disk full") }
	defer func() { saveFileFn = oldSave }()

	fh := fileHeader(t, "image", "a.png", "image/png", []byte("data"))
	if _, err := store.Save(fh, "image"); apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestFilenamesDiffer(t *testing.T) {
	a := Filename("profileImage", "me.jpg", time.Unix(0, 1))
	b := Filename("profileImage", "me.jpg", time.Unix(0, 2))
	if a == b || !strings.HasPrefix(a, "profileImage-") || !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("unexpected filenames %q %q", a, b)
	}
}

func TestEnsureCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := NewStore(dir, tenMB)
	if err := store.Ensure(); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory")
	}
}

func TestFromRequest(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(nil)})
	app.Post("/", func(c *fiber.Ctx) error {
		fh, err := FromRequest(c, "image")
		if err != nil {
			return err
		}
		return c.SendString(fh.Filename)
	})

	body, ct := multipartBody(t, "image", "a.png", "image/png", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok: %v", err)
	}

	body, ct = multipartBody(t, "other", "a.png", "image/png", []byte("data"))
	req = httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing field, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for non-multipart, got %d", resp.StatusCode)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, tenMB)

	path := filepath.Join(dir, "image-1.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Remove("image-1.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed")
	}
	if err := store.Remove("image-1.png"); err != nil {
		t.Fatalf("removing a missing file should be a no-op: %v", err)
	}
	if err := store.Remove("../escape.png"); err != nil {
		t.Fatalf("path names are ignored: %v", err)
	}
}
