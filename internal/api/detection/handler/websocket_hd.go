package detectionHandler

import (
	"FocusDetect/internal/api/detection"
	"FocusDetect/internal/middleware"
	contextPkg "FocusDetect/pkg/context"
	"FocusDetect/pkg/handlerUtil"
	"FocusDetect/pkg/response"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/websocket/v2"
)

// handleFrameWebSocket answers every captured frame with one FrameResponse.
// Binary messages carry jpeg/png bytes; text messages carry a base64 data URL.
func (h *DetectionHandler) handleFrameWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	sessionID, _ := c.Locals(contextPkg.SessionIDKey).(string)

	threshold, err := h.parseThreshold(c.Query("confidence"))
	if err != nil {
		h.writeFrameError(c, err)
		return
	}

	c.SetReadLimit(maxFrameMessageSize)

	h.log.WithField("request_id", requestID).Info("Webcam WebSocket client connected")
	defer h.log.WithField("request_id", requestID).Info("Webcam WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	maxReadTimeout := 60 * time.Second

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Webcam WebSocket error: %v", err)
			}
			break
		}

		ctx := contextPkg.WithRequestID(context.Background(), requestID)
		if sessionID != "" {
			ctx = contextPkg.WithSessionID(ctx, sessionID)
		}

		resp, err := h.processFrame(ctx, messageType, message, threshold)
		if err != nil {
			if !h.writeFrameError(c, err) {
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(resp); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}

func (h *DetectionHandler) processFrame(ctx context.Context, messageType int, message []byte, threshold float64) (*detection.FrameResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, frameTimeout)
	defer cancel()

	var (
		img *detection.Image
		err error
	)

	switch messageType {
	case websocket.BinaryMessage:
		img, err = h.detectionService.IngestCapture(ctx, message)
	case websocket.TextMessage:
		img, err = h.detectionService.IngestBase64(ctx, string(message))
	default:
		return nil, detection.ErrBadRequest
	}
	if err != nil {
		return nil, err
	}

	res, err := h.detectionService.Detect(ctx, img.Buffer, threshold)
	if err != nil {
		return nil, err
	}

	out, err := h.toResponse(img, res)
	if err != nil {
		return nil, err
	}

	return &detection.FrameResponse{DetectResponse: &out}, nil
}

// writeFrameError reports a failed frame and keeps the socket open. It
// returns false when the error could not be written.
func (h *DetectionHandler) writeFrameError(c *websocket.Conn, err error) bool {
	msg := "internal server error"
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < http.StatusInternalServerError {
		msg = respErr.Message()
	} else {
		h.log.Errorf("Error processing frame: %v", err)
	}

	payload := detection.FrameResponse{Error: msg, Code: handlerUtil.Code(err)}

	if writeErr := c.WriteJSON(payload); writeErr != nil {
		h.log.Errorf("Error sending error response: %v", writeErr)
		return false
	}
	return true
}
