// Package vision fronts the OCR backend that turns screenshots into text.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TextExtractor pulls the full text out of an image. An image with no
// recognizable text yields "" and no error.
type TextExtractor interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}

// Client calls the Cloud Vision images:annotate REST endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewClient(httpClient *http.Client, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("vision: api key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    "https://vision.googleapis.com/v1",
	}, nil
}

func (c *Client) DetectText(ctx context.Context, image []byte) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"requests": []map[string]any{{
			"image":    map[string]string{"content": base64.StdEncoding.EncodeToString(image)},
			"features": []map[string]string{{"type": "TEXT_DETECTION"}},
		}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/images:annotate?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision: annotate returned %d", resp.StatusCode)
	}

	var body struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text string `json:"text"`
			} `json:"fullTextAnnotation"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	if len(body.Responses) == 0 {
		return "", nil
	}
	if e := body.Responses[0].Error; e != nil {
		return "", fmt.Errorf("vision: %s", e.Message)
	}
	return body.Responses[0].FullTextAnnotation.Text, nil
}
