package detection

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"image"
)

type DetectRequest struct {
	ImageBase64 string   `json:"image_base64" form:"image_base64" validate:"required"`
	Confidence  *float64 `json:"confidence" form:"confidence" validate:"omitempty,gte=0,lte=1"`
}

type DetectResponse struct {
	Detections     []entity.Detection      `json:"detections"`
	Summary        entity.DetectionSummary `json:"summary"`
	Threshold      float64                 `json:"threshold"`
	Width          int                     `json:"width"`
	Height         int                     `json:"height"`
	AnnotatedImage string                  `json:"annotated_image,omitempty"`
}

// FrameResponse is one reply on the webcam WebSocket. Either the embedded
// result or Error is set.
type FrameResponse struct {
	*DetectResponse
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

type LabelsResponse struct {
	Labels map[int]string `json:"labels"`
}

// Image is the output of ingestion: the decoded buffer plus the bytes it came
// from, which are shown back to the user untouched.
type Image struct {
	Buffer *imagebuf.Buffer
	Raw    []byte
}

// Result is one detection pass over an Image.
type Result struct {
	Detections []entity.Detection
	Summary    entity.DetectionSummary
	Annotated  image.Image
	Threshold  float64
}
