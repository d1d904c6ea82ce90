package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TeraboxClient resolves share links through a third-party scraping API.
// The endpoint is unofficial and breaks whenever Terabox changes something
// upstream, so treat every call as best effort.
type TeraboxClient struct {
	baseURL string
	http    *http.Client
}

func NewTeraboxClient(baseURL string) *TeraboxClient {
	return &TeraboxClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

var _ Resolver = (*TeraboxClient)(nil)

type teraboxResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	FileName  string `json:"file_name"`
	SizeBytes int64  `json:"size_bytes"`
	DirectURL string `json:"direct_link"`
	Thumbnail string `json:"thumb"`
}

// Resolve asks the scraping API for a direct link.
func (c *TeraboxClient) Resolve(ctx context.Context, link string) (*Asset, error) {
	endpoint := fmt.Sprintf("%s/api/get-info?url=%s", c.baseURL, url.QueryEscape(link))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build resolve request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve %s: upstream returned %s", link, resp.Status)
	}

	var body teraboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("resolve %s: decode response: %w", link, err)
	}

	if body.Status != "success" || body.DirectURL == "" {
		if body.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvable, body.Message)
		}
		return nil, ErrUnresolvable
	}

	title := body.FileName
	if title == "" {
		title = "file"
	}

	return &Asset{
		Title:     title,
		SizeBytes: body.SizeBytes,
		DirectURL: body.DirectURL,
		Thumbnail: body.Thumbnail,
	}, nil
}
