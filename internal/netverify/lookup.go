package netverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// PublicIPLookup resolves the caller's public IP from an external echo
// service when the request itself arrived over loopback or a private
// network (typical in local development behind no proxy).
type PublicIPLookup struct {
	url    string
	client *http.Client
}

func NewPublicIPLookup(url string, timeout time.Duration) (*PublicIPLookup, error) {
	if url == "" {
		return nil, errors.New("public ip lookup: url is required")
	}
	return &PublicIPLookup{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// PublicIP returns the caller's public address as seen by the echo service.
func (l *PublicIPLookup) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("build ip lookup request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip lookup: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode ip lookup response: %w", err)
	}
	if body.IP == "" {
		return "", errors.New("ip lookup: empty address")
	}
	return body.IP, nil
}
