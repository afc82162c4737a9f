package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type wireFrame struct {
	Image string  `json:"image"`
	Conf  float64 `json:"conf"`
}

// wsDetector keeps one WebSocket to the inference service open and sends one
// frame per Predict call. Requests are serialised over the single connection.
type wsDetector struct {
	url          string
	conn         *websocket.Conn
	mu           sync.Mutex
	labels       map[int]string
	overlay      *Overlay
	log          *logrus.Logger
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

func newWebSocketDetector(cfg Config, log *logrus.Logger) (*wsDetector, error) {
	d := &wsDetector{
		url:          cfg.WebSocketURL,
		labels:       labelMap(cfg.Labels),
		overlay:      NewOverlay(),
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  cfg.Timeout,
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}

	if d.url == "" {
		return nil, fmt.Errorf("%w: inference websocket URL not configured", ErrBackendUnavailable)
	}

	if err := d.Reconnect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	d.logf(logrus.InfoLevel, "Connected to inference service at %s", d.url)
	return d, nil
}

func (d *wsDetector) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn != nil
}

func (d *wsDetector) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reconnectLocked()
}

func (d *wsDetector) reconnectLocked() error {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(d.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", d.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(d.writeTimeout))
		if err != nil {
			d.logf(logrus.WarnLevel, "Error sending pong: %v", err)
		}
		return nil
	})

	d.conn = conn
	go d.keepAlive(conn)

	return nil
}

func (d *wsDetector) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(d.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
		}

		d.mu.Lock()
		if d.conn != conn {
			d.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(d.writeTimeout))
		if err != nil {
			d.logf(logrus.WarnLevel, "Ping failed, marking inference connection as dead: %v", err)
			d.conn = nil
			conn.Close()
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
	}
}

func (d *wsDetector) Predict(ctx context.Context, buf *imagebuf.Buffer, threshold float64) ([]entity.Detection, error) {
	if err := ValidateInput(buf); err != nil {
		return nil, err
	}

	payload, err := buf.Encode(imagebuf.MIMEJPEG)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	message, err := json.Marshal(wireFrame{
		Image: base64.StdEncoding.EncodeToString(payload),
		Conf:  threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		if err := d.reconnectLocked(); err != nil {
			return nil, fmt.Errorf("cannot connect to inference service: %w", err)
		}
	}
	conn := d.conn

	deadline := time.Now().Add(d.readTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	conn.SetWriteDeadline(time.Now().Add(d.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		d.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error sending frame: %w", err)
	}

	conn.SetReadDeadline(deadline)
	_, reply, err := conn.ReadMessage()
	if err != nil {
		d.conn = nil
		conn.Close()
		return nil, fmt.Errorf("error reading prediction: %w", err)
	}

	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var result wirePrediction
	if err := json.Unmarshal(reply, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling prediction: %w", err)
	}
	if result.Error != "" {
		return nil, replyError(result)
	}

	d.logf(logrus.DebugLevel, "Received %d detection(s) from inference service", len(result.Detections))

	return toDetections(result.Detections, d.labels, threshold, buf.Bounds()), nil
}

func (d *wsDetector) Render(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error) {
	return d.overlay.Draw(buf, detections)
}

func (d *wsDetector) Labels() map[int]string {
	return copyLabels(d.labels)
}

func (d *wsDetector) Close() error {
	d.closeOnce.Do(func() { close(d.done) })

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *wsDetector) logf(level logrus.Level, format string, args ...interface{}) {
	if d.log == nil {
		return
	}
	d.log.Logf(level, format, args...)
}
