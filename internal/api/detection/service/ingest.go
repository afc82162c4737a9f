package detectionService

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/pkg/imagebuf"
	"FocusDetect/pkg/staging"
	"FocusDetect/pkg/utils"
	"context"
	"mime/multipart"
)

// Source produces one decoded image. Uploads and webcam captures are the two
// implementations; everything downstream only sees detection.Image.
type Source interface {
	Kind() string
	Ingest(ctx context.Context) (*detection.Image, error)
}

type uploadSource struct {
	file   *multipart.FileHeader
	utils  utils.IUtils
	stager *staging.Stager
}

func NewUploadSource(file *multipart.FileHeader, u utils.IUtils, stager *staging.Stager) Source {
	return &uploadSource{file: file, utils: u, stager: stager}
}

func (u *uploadSource) Kind() string {
	return "upload"
}

// Ingest validates the name and size, stages the bytes to disk and decodes
// them. The staged copy is removed before returning.
func (u *uploadSource) Ingest(ctx context.Context) (*detection.Image, error) {
	if err := u.utils.ValidateImageFile(u.file); err != nil {
		return nil, err
	}

	src, err := u.file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	staged, err := u.stager.Stage(u.file.Filename, src)
	if err != nil {
		return nil, err
	}
	defer staged.Remove()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := staged.ReadAll()
	if err != nil {
		return nil, err
	}

	buf, err := imagebuf.Decode(raw)
	if err != nil {
		return nil, err
	}

	return &detection.Image{Buffer: buf, Raw: raw}, nil
}

type captureSource struct {
	frame []byte
}

func NewCaptureSource(frame []byte) Source {
	return &captureSource{frame: frame}
}

func (c *captureSource) Kind() string {
	return "capture"
}

func (c *captureSource) Ingest(ctx context.Context) (*detection.Image, error) {
	if len(c.frame) == 0 {
		return nil, utils.ErrNoFile
	}

	buf, err := imagebuf.Decode(c.frame)
	if err != nil {
		return nil, err
	}

	return &detection.Image{Buffer: buf, Raw: c.frame}, nil
}
