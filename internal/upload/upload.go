// Package upload validates image uploads and writes them to the directory
// served under PublicPath.
package upload

import (
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backend-picfeed/internal/shared/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const PublicPath = "/uploads"

var (
	allowedExtensions = map[string]struct{}{
		".jpeg": {},
		".jpg":  {},
		".png":  {},
		".gif":  {},
	}
	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/jpg":  {},
		"image/png":  {},
		"image/gif":  {},
	}
)

var (
	nowFn      = time.Now
	saveFileFn = fasthttp.SaveMultipartFile
)

type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Ensure creates the upload directory if needed.
func (s *Store) Ensure() error {
	return os.MkdirAll(s.dir, 0o755)
}

// Validate checks the declared extension, declared content type and size.
// Both the extension and the content type must be on the image allow-list.
func (s *Store) Validate(fh *multipart.FileHeader) error {
	if fh == nil {
		return apperr.MissingFile("please upload an image")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperr.InvalidUpload("images only: unsupported file extension " + strconv.Quote(ext))
	}

	mediaType, _, err := mime.ParseMediaType(fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return apperr.InvalidUpload("images only: missing or invalid content type")
	}
	if _, ok := allowedContentTypes[strings.ToLower(mediaType)]; !ok {
		return apperr.InvalidUpload("images only: unsupported content type " + strconv.Quote(mediaType))
	}

	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return apperr.InvalidUpload("file too large: limit is " + strconv.FormatInt(s.maxBytes, 10) + " bytes")
	}
	return nil
}

// Save validates fh and writes it under a name built from the form field, a
// nanosecond timestamp and the original extension. It returns the stored
// filename, which callers record as the image reference.
func (s *Store) Save(fh *multipart.FileHeader, field string) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	name := Filename(field, fh.Filename, nowFn())
	if err := saveFileFn(fh, filepath.Join(s.dir, name)); err != nil {
		return "", apperr.Internal("failed to store upload", err)
	}
	return name, nil
}

// Remove deletes a stored file whose database reference could not be
// recorded.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// FromRequest returns the file sent in field or a MissingFile error.
func FromRequest(c *fiber.Ctx, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, apperr.Wrap(apperr.KindMissingFile, "please upload a file in field "+strconv.Quote(field), err)
	}
	return fh, nil
}

func Filename(field, original string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	return field + "-" + strconv.FormatInt(at.UnixNano(), 10) + ext
}

// PublicURL is the absolute URL of a stored file, or "" when there is none.
func PublicURL(baseURL, filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + PublicPath + "/" + filename
}
