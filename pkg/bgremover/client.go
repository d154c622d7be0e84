package bgremover

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrService marks any failure of the remote cutout service: missing
// credentials, non-2xx responses, malformed output references, timeouts.
var ErrService = errors.New("background service failed")

// Cutout is the result of a successful background removal.
type Cutout struct {
	Data        []byte
	ContentType string
}

// Client talks to the remote background-removal API. The remote service
// cannot pull bytes from our memory, so each call stages the raw upload
// behind a signed retrieval URL on this server, hands that URL to the remote
// service, and cleans the staged file up afterwards.
type Client struct {
	apiBase    string
	apiToken   string
	publicBase string
	staging    *Staging
	client     *http.Client
}

func NewClient(apiBase, apiToken, publicBase string, staging *Staging, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		apiBase:    apiBase,
		apiToken:   apiToken,
		publicBase: publicBase,
		staging:    staging,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Staging exposes the staging area for the source-serving endpoint.
func (c *Client) Staging() *Staging { return c.staging }

// Configured reports whether remote credentials are present.
func (c *Client) Configured() bool {
	return c.apiBase != "" && c.apiToken != ""
}

type removeRequest struct {
	ImageURL string `json:"imageUrl"`
}

type removeResponse struct {
	OutputURL string `json:"outputUrl"`
	Mode      string `json:"mode,omitempty"`
}

// RemoveBackground stages the photo, invokes the remote service with a signed
// retrieval URL, and resolves the cutout. The staged file is deleted on every
// exit path.
func (c *Client) RemoveBackground(ctx context.Context, filename, contentType string, data []byte) (*Cutout, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: missing service credentials", ErrService)
	}

	staged, err := c.staging.Stage(filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer c.staging.Remove(staged)

	sourceURL := fmt.Sprintf("%s/bgremover/source/%s?token=%s",
		c.publicBase, url.PathEscape(staged), c.staging.SignToken(staged))

	out, err := c.callJSON(ctx, c.apiBase+"/remove-bg", removeRequest{ImageURL: sourceURL})
	if err != nil {
		return nil, err
	}

	if out.OutputURL == "" {
		return nil, fmt.Errorf("%w: response missing output reference", ErrService)
	}

	cutoutData, cutoutType, err := c.fetchOutput(ctx, out.OutputURL)
	if err != nil {
		return nil, err
	}

	return &Cutout{Data: cutoutData, ContentType: cutoutType}, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateBackground asks the remote service for an AI-generated backdrop.
// Same auth and failure contract as RemoveBackground; no staging needed since
// nothing is uploaded.
func (c *Client) GenerateBackground(ctx context.Context, prompt string) ([]byte, string, error) {
	if !c.Configured() {
		return nil, "", fmt.Errorf("%w: missing service credentials", ErrService)
	}

	out, err := c.callJSON(ctx, c.apiBase+"/generate-bg", generateRequest{Prompt: prompt})
	if err != nil {
		return nil, "", err
	}

	if out.OutputURL == "" {
		return nil, "", fmt.Errorf("%w: response missing output reference", ErrService)
	}

	return c.fetchOutput(ctx, out.OutputURL)
}

func (c *Client) callJSON(ctx context.Context, endpoint string, payload interface{}) (*removeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, string(errBody))
	}

	var out removeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrService, err)
	}

	return &out, nil
}

func (c *Client) fetchOutput(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrService, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: output fetch returned %d", ErrService, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrService, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return data, contentType, nil
}
