package admin

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"productcatalog/internal/apperr"
	"productcatalog/internal/models"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Uploader stores admin image uploads below Root/product_images.
type Uploader struct {
	Root     string
	MaxBytes int64
}

func NewUploader(root string, maxMB int) *Uploader {
	return &Uploader{Root: root, MaxBytes: int64(maxMB) << 20}
}

// Save stores the multipart file in field and returns its path relative to
// the media root. A request without that file is not an error; it yields "".
func (u *Uploader) Save(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperr.Wrap(apperr.CodeValidation, err, "malformed upload")
	}
	if u.MaxBytes > 0 && file.Size > u.MaxBytes {
		return "", uploadError(field, fmt.Sprintf("must be at most %d MB", u.MaxBytes>>20))
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		return "", uploadError(field, "unsupported image format")
	}

	dir := filepath.Join(u.Root, models.ImageUploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, err, "create upload dir")
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, err, "store upload")
	}
	return path.Join(models.ImageUploadDir, name), nil
}

func uploadError(field, msg string) error {
	return apperr.New(apperr.CodeValidation, "validation failed").WithDetails(map[string]string{field: msg})
}

// mediaURL is the public address of a stored image path.
func mediaURL(stored string) string {
	if stored == "" {
		return ""
	}
	return MediaURL + strings.TrimPrefix(stored, "/")
}
