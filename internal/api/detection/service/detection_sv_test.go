package detectionService

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/pkg/detector"
	"FocusDetect/pkg/imagebuf"
	"FocusDetect/pkg/staging"
	"FocusDetect/pkg/utils"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      IDetectionService
	mock     *detector.Mock
	stageDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)

	mock := detector.NewMock()
	mock.SetDetections(detector.ClassroomDetections())

	dir := t.TempDir()
	svc := NewDetectionService(l, mock, staging.New(dir, l), utils.New(), DefaultThreshold)
	return fixture{svc: svc, mock: mock, stageDir: dir}
}

func classroomImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 3), B: 90, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, classroomImage(w, h), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, classroomImage(w, h)))
	return buf.Bytes()
}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func assertStagingEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload was not removed")
}

func sortedLabels(r *detection.Result) []string {
	out := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		out = append(out, d.Label)
	}
	sort.Strings(out)
	return out
}

func TestUploadClassroomJPEG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.IngestUpload(ctx, fileHeader(t, "classroom.jpg", jpegBytes(t, 640, 480)))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Buffer.Width())
	assert.Equal(t, 480, img.Buffer.Height())
	assert.Equal(t, imagebuf.MIMEJPEG, img.Buffer.MIME())
	assertStagingEmpty(t, f.stageDir)

	res, err := f.svc.Detect(ctx, img.Buffer, 0.25)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(res.Detections), 0)
	assert.Equal(t, image.Pt(640, 480), res.Annotated.Bounds().Size())
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Focus())
	assert.Equal(t, 1, res.Summary.Unfocus())
}

func TestAnnotatedKeepsSizeForAllInputs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		data []byte
	}{
		{"small.png", pngBytes(t, 32, 24)},
		{"portrait.jpeg", jpegBytes(t, 240, 320)},
		{"wide.jpg", jpegBytes(t, 1280, 200)},
		{"one.png", pngBytes(t, 1, 1)},
	}

	for _, tc := range cases {
		img, err := f.svc.IngestUpload(ctx, fileHeader(t, tc.name, tc.data))
		require.NoError(t, err, tc.name)

		res, err := f.svc.Detect(ctx, img.Buffer, 0.25)
		require.NoError(t, err, tc.name)
		assert.Equal(t, img.Buffer.Bounds().Size(), res.Annotated.Bounds().Size(), tc.name)
	}
}

func TestThresholdIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.IngestCapture(ctx, jpegBytes(t, 640, 480))
	require.NoError(t, err)

	thresholds := []float64{0, 0.1, 0.25, 0.3, 0.5, 0.62, 0.63, 0.9, 0.91, 0.95, 1}
	prev := -1
	for _, th := range thresholds {
		res, err := f.svc.Detect(ctx, img.Buffer, th)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(res.Detections), prev, "threshold %.2f", th)
		}
		prev = len(res.Detections)
	}
	assert.Equal(t, 0, prev)
}

func TestDetectIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.svc.IngestCapture(ctx, pngBytes(t, 640, 480))
	require.NoError(t, err)

	first, err := f.svc.Detect(ctx, img.Buffer, 0.25)
	require.NoError(t, err)
	second, err := f.svc.Detect(ctx, img.Buffer, 0.25)
	require.NoError(t, err)

	assert.Equal(t, len(first.Detections), len(second.Detections))
	assert.Equal(t, sortedLabels(first), sortedLabels(second))
}

func TestTextFileNeverReachesDetector(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.IngestUpload(context.Background(), fileHeader(t, "notes.txt", []byte("quiz on friday")))
	assert.ErrorIs(t, err, detection.ErrUnsupportedFormat)
	assert.Equal(t, 0, f.mock.Calls())
	assertStagingEmpty(t, f.stageDir)
}

func TestDisguisedFileIsSniffed(t *testing.T) {
	f := newFixture(t)

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	_, err := f.svc.IngestUpload(context.Background(), fileHeader(t, "photo.png", gif))
	assert.ErrorIs(t, err, detection.ErrUnsupportedFormat)
	assertStagingEmpty(t, f.stageDir)
}

func TestCorruptImage(t *testing.T) {
	f := newFixture(t)
	data := jpegBytes(t, 64, 64)

	_, err := f.svc.IngestUpload(context.Background(), fileHeader(t, "broken.jpg", data[:len(data)/3]))
	assert.ErrorIs(t, err, detection.ErrInvalidImage)
	assertStagingEmpty(t, f.stageDir)
}

func TestMissingUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.IngestUpload(context.Background(), nil)
	assert.ErrorIs(t, err, detection.ErrNoImage)

	_, err = f.svc.IngestCapture(context.Background(), nil)
	assert.ErrorIs(t, err, detection.ErrNoImage)
}

func TestUploadTooLarge(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	svc := NewDetectionService(l, detector.NewMock(), staging.New(t.TempDir(), l), utils.NewWithLimit(100), DefaultThreshold)

	_, err := svc.IngestUpload(context.Background(), fileHeader(t, "big.jpg", jpegBytes(t, 64, 64)))
	assert.ErrorIs(t, err, detection.ErrFileTooLarge)
}

func TestOversizeDimensionsRejectedBeforeDecode(t *testing.T) {
	f := newFixture(t)

	// A blank 6001x4000 grayscale PNG compresses to a few kilobytes, well
	// under the byte limit.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 6001, 4000))))
	data := buf.Bytes()
	require.Less(t, len(data), 1<<20)

	_, err := f.svc.IngestUpload(context.Background(), fileHeader(t, "huge.png", data))
	assert.ErrorIs(t, err, detection.ErrImageTooLarge)
	assertStagingEmpty(t, f.stageDir)

	_, err = f.svc.IngestCapture(context.Background(), data)
	assert.ErrorIs(t, err, detection.ErrImageTooLarge)

	_, err = f.svc.IngestBase64(context.Background(), base64.StdEncoding.EncodeToString(data))
	assert.ErrorIs(t, err, detection.ErrImageTooLarge)

	assert.Equal(t, 0, f.mock.Calls())
}

func TestIngestBase64DataURL(t *testing.T) {
	f := newFixture(t)
	data := pngBytes(t, 20, 10)

	img, err := f.svc.IngestBase64(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Buffer.Width())
	assert.Equal(t, data, img.Raw)

	_, err = f.svc.IngestBase64(context.Background(), "data:image/png;base64,@@@")
	assert.ErrorIs(t, err, detection.ErrInvalidImage)
}

func TestMalformedBufferFailsDetection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Detect(context.Background(), &imagebuf.Buffer{}, 0.25)
	assert.ErrorIs(t, err, detection.ErrDetectionFailed)
}

func TestDetectorFaultIsInternal(t *testing.T) {
	f := newFixture(t)
	img, err := f.svc.IngestCapture(context.Background(), pngBytes(t, 8, 8))
	require.NoError(t, err)

	f.mock.SetError(errors.New("cuda out of memory"))
	_, err = f.svc.Detect(context.Background(), img.Buffer, 0.25)
	assert.ErrorIs(t, err, detection.ErrInternalServerError)

	f.mock.SetError(nil)
	f.mock.SetRenderError(detector.ErrInvalidInput)
	_, err = f.svc.Detect(context.Background(), img.Buffer, 0.25)
	assert.ErrorIs(t, err, detection.ErrDetectionFailed)
}

func TestInvalidThreshold(t *testing.T) {
	f := newFixture(t)
	img, err := f.svc.IngestCapture(context.Background(), pngBytes(t, 8, 8))
	require.NoError(t, err)

	for _, th := range []float64{-0.1, 1.5} {
		_, err := f.svc.Detect(context.Background(), img.Buffer, th)
		assert.ErrorIs(t, err, detection.ErrInvalidConfidence)
	}
	assert.Equal(t, 0, f.mock.Calls())
}

func TestLabelsAndDefaultThreshold(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, map[int]string{0: "focus", 1: "unfocus"}, f.svc.Labels())
	assert.Equal(t, 0.25, f.svc.DefaultThreshold())
}
