package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile               = errors.New("no file uploaded")
	ErrFileTooLarge         = errors.New("file size exceeds limit")
	ErrUnsupportedExtension = errors.New("file extension is not an accepted image type")
	ErrInvalidBase64        = errors.New("invalid base64 image payload")
)

// AllowedImageExtensions is the upload allow-list, lower case with the dot.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png"}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	IsULID(s string) bool
	ValidateImageFile(file *multipart.FileHeader) error
	ConvertFileToBase64(file multipart.File) (string, error)
	DecodeBase64Image(payload string) ([]byte, error)
	EncodeDataURI(mimeType string, data []byte) string
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return NewWithLimit(10 * 1024 * 1024)
}

func NewWithLimit(maxFileSize int64) IUtils {
	return &utils{
		maxFileSize: maxFileSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) IsULID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// ValidateImageFile checks presence, size and extension. Content is sniffed
// later by the decoder, so the client-supplied Content-Type is not trusted.
func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, file.Size)
	}

	if !HasImageExtension(file.Filename) {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, file.Filename)
	}

	return nil
}

func HasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (u *utils) ConvertFileToBase64(file multipart.File) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	base64Encoded := base64.StdEncoding.EncodeToString(fileBytes)
	return base64Encoded, nil
}

// DecodeBase64Image accepts either a bare base64 string or a data URL such
// as the one produced by canvas.toDataURL in the browser.
func (u *utils) DecodeBase64Image(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrNoFile
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, ErrInvalidBase64
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	return data, nil
}

func (u *utils) EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
