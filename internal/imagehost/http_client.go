package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"imagesapi/internal/config"
)

const (
	tokenHeader     = "X-API-Private-Token"
	maxErrorBodyLen = 64 << 10
)

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient returns a Client for a JSON image API rooted at
// cfg.BaseURL.
func NewHTTPClient(cfg *config.UpstreamConfig, log *zap.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

func (c *httpClient) Create(ctx context.Context, p Payload) (*Image, error) {
	resp, err := c.do(ctx, http.MethodPost, c.baseURL, p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.statusError(resp)
	}

	var img Image
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil {
		return nil, fmt.Errorf("decode image host response: %w", err)
	}
	if img.ID == "" || img.ImageURL == "" {
		return nil, fmt.Errorf("image host response is missing id or imageUrl")
	}

	c.log.Info("Image created upstream",
		zap.String("upstream_id", img.ID),
		zap.String("content_type", img.ContentType))

	return &img, nil
}

func (c *httpClient) Replace(ctx context.Context, id string, p Payload) (*Image, error) {
	return c.update(ctx, http.MethodPut, id, p)
}

func (c *httpClient) Patch(ctx context.Context, id string, p Payload) (*Image, error) {
	return c.update(ctx, http.MethodPatch, id, p)
}

func (c *httpClient) update(ctx context.Context, method, id string, p Payload) (*Image, error) {
	resp, err := c.do(ctx, method, c.itemURL(id), p)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp)
	}

	c.log.Info("Image updated upstream",
		zap.String("method", method),
		zap.String("upstream_id", id),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	// Some hosts answer updates with 201 and the new object; anything that
	// does not decode into an id and url means nothing changed upstream.
	var img Image
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil || img.ID == "" || img.ImageURL == "" {
		return nil, nil
	}
	return &img, nil
}

func (c *httpClient) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}

	c.log.Info("Image deleted upstream", zap.String("upstream_id", id))
	return nil
}

func (c *httpClient) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

func (c *httpClient) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode image host request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build image host request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("Image host request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		return nil, fmt.Errorf("image host %s request: %w", method, err)
	}
	return resp, nil
}

// statusError captures the vendor status and message for diagnostics.
func (c *httpClient) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	message := strings.TrimSpace(string(raw))
	var vendor struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &vendor) == nil && vendor.Message != "" {
		message = vendor.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	err := &StatusError{StatusCode: resp.StatusCode, Message: message}
	c.log.Warn("Image host returned an error",
		zap.String("method", resp.Request.Method),
		zap.Int("status", resp.StatusCode),
		zap.String("message", message))
	return err
}
