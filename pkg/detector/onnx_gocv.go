//go:build gocv

package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// onnxDetector runs a YOLOv8 ONNX export in-process through OpenCV DNN.
type onnxDetector struct {
	net       gocv.Net
	mu        sync.Mutex
	labels    map[int]string
	inputSize image.Point
	nms       float32
	log       *logrus.Logger
}

func newONNXDetector(cfg Config, log *logrus.Logger) (Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to load model from %s", ErrBackendUnavailable, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	size := cfg.InputSize
	if size <= 0 {
		size = 640
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"model":  cfg.ModelPath,
			"labels": cfg.Labels,
			"input":  size,
		}).Info("ONNX model loaded")
	}

	return &onnxDetector{
		net:       net,
		labels:    labelMap(cfg.Labels),
		inputSize: image.Pt(size, size),
		nms:       float32(cfg.NMSThreshold),
		log:       log,
	}, nil
}

func (d *onnxDetector) matFromBuffer(buf *imagebuf.Buffer) (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(buf.Height(), buf.Width(), gocv.MatTypeCV8UC3, buf.BGR())
	if err != nil {
		return mat, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if mat.Empty() {
		mat.Close()
		return mat, fmt.Errorf("%w: empty mat", ErrInvalidInput)
	}
	return mat, nil
}

func (d *onnxDetector) Predict(ctx context.Context, buf *imagebuf.Buffer, threshold float64) ([]entity.Detection, error) {
	if err := ValidateInput(buf); err != nil {
		return nil, err
	}

	img, err := d.matFromBuffer(buf)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	return d.parseOutput(output, float32(buf.Width()), float32(buf.Height()), float32(threshold))
}

// parseOutput decodes the [1, 4+nc, N] YOLOv8 head: cx, cy, w, h followed by
// one score per class, then applies NMS.
func (d *onnxDetector) parseOutput(output gocv.Mat, imgW, imgH, threshold float32) ([]entity.Detection, error) {
	sizes := output.Size()
	if err := checkOutputShape(sizes, len(d.labels)); err != nil {
		return nil, err
	}
	cols := sizes[1]
	rows := sizes[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read model output: %w", err)
	}
	if len(data) < cols*rows {
		return nil, fmt.Errorf("model output has %d values, want %d", len(data), cols*rows)
	}

	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < threshold {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(d.inputSize.X))
		y1 := int((cy - h/2) * imgH / float32(d.inputSize.Y))
		x2 := int((cx + w/2) * imgW / float32(d.inputSize.X))
		y2 := int((cy + h/2) * imgH / float32(d.inputSize.Y))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return []entity.Detection{}, nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, threshold, d.nms)

	dets := make([]entity.Detection, 0, len(indices))
	for _, idx := range indices {
		box := boxes[idx]
		dets = append(dets, entity.Detection{
			Box:        entity.BoundingBox{X: box.Min.X, Y: box.Min.Y, Width: box.Dx(), Height: box.Dy()},
			ClassID:    classIDs[idx],
			Label:      labelFor(d.labels, classIDs[idx], ""),
			Confidence: float64(confidences[idx]),
		})
	}

	return keepAtLeast(dets, float64(threshold), image.Rect(0, 0, int(imgW), int(imgH))), nil
}

// Render draws with OpenCV so the annotation matches the model tooling.
func (d *onnxDetector) Render(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error) {
	if err := ValidateInput(buf); err != nil {
		return nil, err
	}

	img, err := d.matFromBuffer(buf)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	for _, det := range detections {
		c := boxColor(det)
		rect := image.Rect(det.Box.X, det.Box.Y, det.Box.X+det.Box.Width, det.Box.Y+det.Box.Height)
		gocv.Rectangle(&img, rect, c, 2)

		tag := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
		textSize := gocv.GetTextSize(tag, gocv.FontHersheySimplex, 0.6, 2)
		ty := rect.Min.Y - 4
		if ty-textSize.Y < 0 {
			ty = rect.Min.Y + textSize.Y + 4
		}
		gocv.Rectangle(&img, image.Rect(rect.Min.X, ty-textSize.Y-4, rect.Min.X+textSize.X+4, ty+4), c, -1)
		gocv.PutText(&img, tag, image.Pt(rect.Min.X+2, ty), gocv.FontHersheySimplex, 0.6, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 2)
	}

	out, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert annotated mat: %w", err)
	}
	return out, nil
}

func (d *onnxDetector) Labels() map[int]string {
	return copyLabels(d.labels)
}

func (d *onnxDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
