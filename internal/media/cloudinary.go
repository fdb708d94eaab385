package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"sitetrack/internal/domain/models"
	"sitetrack/internal/metrics"
)

// Resource types understood by the upload endpoint
const (
	ResourceImage = "image"
	ResourceVideo = "video" // also used for audio
	ResourceRaw   = "raw"
)

// Config configures the Cloudinary client
type Config struct {
	CloudName    string
	UploadPreset string
	APIURL       string // https://api.cloudinary.com
	DeliveryURL  string // https://res.cloudinary.com

	AttemptTimeout time.Duration // per attempt, default 120s
	MaxAttempts    uint          // default 3
	InitialBackoff time.Duration // default 2s, doubled per retry
	MaxBackoff     time.Duration // default 8s
}

func (c *Config) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://api.cloudinary.com"
	}
	if c.DeliveryURL == "" {
		c.DeliveryURL = "https://res.cloudinary.com"
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	c.DeliveryURL = strings.TrimRight(c.DeliveryURL, "/")
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 120 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 8 * time.Second
	}
}

// Client uploads unsigned assets with an upload preset
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a Cloudinary client. Configuration is checked per call
// so the server can start without CDN credentials.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.setDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
		now:        time.Now,
	}
}

// UploadRequest describes one asset upload
type UploadRequest struct {
	Data         []byte
	MimeType     string
	ResourceType string
	Folder       string
	Tags         []string
	PublicID     string // optional
}

// UploadImage uploads a JPEG acquired from the photo library or camera
func (c *Client) UploadImage(ctx context.Context, data []byte, source models.ImageSource, folder string) (*models.MediaAsset, error) {
	if folder == "" {
		folder = "images"
	}
	return c.Upload(ctx, UploadRequest{
		Data:         data,
		MimeType:     "image/jpeg",
		ResourceType: ResourceImage,
		Folder:       folder,
		Tags:         []string{"image", string(source)},
	})
}

// UploadDocument uploads a raw file into the documents folder
func (c *Client) UploadDocument(ctx context.Context, data []byte, mimeType, publicID string, tags []string) (*models.MediaAsset, error) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return c.Upload(ctx, UploadRequest{
		Data:         data,
		MimeType:     mimeType,
		ResourceType: ResourceRaw,
		Folder:       "documents",
		Tags:         tags,
		PublicID:     publicID,
	})
}

// UploadAudio uploads an m4a voice note
func (c *Client) UploadAudio(ctx context.Context, data []byte, folder string) (*models.MediaAsset, error) {
	if folder == "" {
		folder = "voice_notes"
	}
	return c.Upload(ctx, UploadRequest{
		Data:         data,
		MimeType:     "audio/mp4",
		ResourceType: ResourceVideo,
		Folder:       sanitizeFolder(folder),
		Tags:         []string{"voice_note"},
		PublicID:     fmt.Sprintf("voice_note_%d_%s", c.now().UnixMilli(), randomSuffix()),
	})
}

// Upload sends req, retrying server errors and network failures with
// exponential backoff. Client errors and timeouts fail immediately.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*models.MediaAsset, error) {
	if c.cfg.CloudName == "" || c.cfg.UploadPreset == "" {
		return nil, ErrNotConfigured
	}
	if len(req.Data) == 0 {
		return nil, errors.New("upload payload is empty")
	}

	body, contentType, err := encodeForm(req, c.cfg.UploadPreset)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", c.cfg.APIURL, c.cfg.CloudName, req.ResourceType)

	attempt := 0
	op := func() (*models.MediaAsset, error) {
		attempt++
		asset, err := c.attempt(ctx, endpoint, body, contentType)
		if err == nil {
			metrics.RecordUploadAttempt(req.ResourceType, "success")
			return asset, nil
		}
		if !isRetryable(err) || ctx.Err() != nil {
			metrics.RecordUploadAttempt(req.ResourceType, "failed")
			return nil, backoff.Permanent(err)
		}
		metrics.RecordUploadAttempt(req.ResourceType, "retry")
		return nil, err
	}

	b := newUploadBackOff(c.cfg.InitialBackoff, c.cfg.MaxBackoff)

	asset, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("upload attempt failed, retrying",
				"resource_type", req.ResourceType,
				"attempt", attempt,
				"retry_in", wait,
				"error", err,
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	c.logger.Info("asset uploaded",
		"public_id", asset.PublicID,
		"resource_type", asset.ResourceType,
		"bytes", asset.Bytes,
		"attempts", attempt,
	)
	return asset, nil
}

func (c *Client) attempt(ctx context.Context, endpoint string, body []byte, contentType string) (*models.MediaAsset, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrUploadTimeout
		}
		return nil, &networkError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrUploadTimeout
		}
		return nil, &networkError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return nil, &UploadError{Status: resp.StatusCode, Message: apiErr.Error.Message}
	}

	var result struct {
		PublicID     string `json:"public_id"`
		SecureURL    string `json:"secure_url"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		Format       string `json:"format"`
		ResourceType string `json:"resource_type"`
		Bytes        int64  `json:"bytes"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &models.MediaAsset{
		PublicID:     result.PublicID,
		URL:          result.SecureURL,
		Width:        result.Width,
		Height:       result.Height,
		Format:       result.Format,
		ResourceType: result.ResourceType,
		Bytes:        result.Bytes,
	}, nil
}

// encodeForm builds the multipart body once so retries resend identical bytes
func encodeForm(req UploadRequest, preset string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"file", "data:" + req.MimeType + ";base64," + base64.StdEncoding.EncodeToString(req.Data)},
		{"upload_preset", preset},
		{"folder", req.Folder},
	}
	if len(req.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(req.Tags, ",")})
	}
	if req.PublicID != "" {
		fields = append(fields, [2]string{"public_id", req.PublicID})
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// AssetURL builds a delivery URL with optional transformations
func (c *Client) AssetURL(publicID string, opts models.AssetOptions) (string, error) {
	if c.cfg.CloudName == "" {
		return "", ErrNotConfigured
	}

	var t []string
	if opts.Width > 0 || opts.Height > 0 {
		crop := opts.Crop
		if crop == "" {
			crop = "fill"
		}
		t = append(t, "c_"+crop)
		if opts.Width > 0 {
			t = append(t, "w_"+strconv.Itoa(opts.Width))
		}
		if opts.Height > 0 {
			t = append(t, "h_"+strconv.Itoa(opts.Height))
		}
	}
	if opts.Quality != "" {
		t = append(t, "q_"+opts.Quality)
	}
	if opts.Format != "" && opts.Format != "auto" {
		t = append(t, "f_"+opts.Format)
	}

	transformation := ""
	if len(t) > 0 {
		transformation = strings.Join(t, ",") + "/"
	}

	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = ResourceImage
	}

	return fmt.Sprintf("%s/%s/%s/upload/%s%s",
		c.cfg.DeliveryURL, c.cfg.CloudName, resourceType, transformation, publicID), nil
}

// sanitizeFolder replaces path separators, which the preset rejects
func sanitizeFolder(folder string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(folder)
}

func randomSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 7)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
