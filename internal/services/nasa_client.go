package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apodboard/backend/internal/models"
)

var (
	ErrNASA             = errors.New("nasa api error")
	ErrInvalidDateRange = errors.New("date outside the apod range")
)

const maxAPODBody = 1 << 20

// APODProvider fetches one Astronomy Picture of the Day entry by date.
type APODProvider interface {
	FetchAPOD(ctx context.Context, date string) (*models.APODResponse, error)
}

type NASAClient struct {
	APIKey     string
	HTTPClient *http.Client
	Endpoint   string
}

func NewNASAClient(apiKey, endpoint string, timeout time.Duration) *NASAClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NASAClient{
		APIKey:   strings.TrimSpace(apiKey),
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchAPOD returns ErrInvalidDateRange when the provider rejects the date and
// ErrNASA for every other failure, including unreadable payloads.
func (c *NASAClient) FetchAPOD(ctx context.Context, date string) (*models.APODResponse, error) {
	if c == nil || c.Endpoint == "" {
		return nil, fmt.Errorf("%w: client not configured", ErrNASA)
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNASA, err)
	}
	q := u.Query()
	q.Set("api_key", c.APIKey)
	q.Set("date", date)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNASA, err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNASA, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPODBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNASA, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPODError(resp.StatusCode, body)
	}

	var out models.APODResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNASA, err)
	}
	if out.Title == "" || out.Date == "" || (out.URL == "" && out.HDURL == "") {
		return nil, fmt.Errorf("%w: incomplete apod payload for %s", ErrNASA, date)
	}
	return &out, nil
}

func classifyAPODError(status int, body []byte) error {
	var apiErr models.APODErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg = apiErr.Msg
		if msg == "" && apiErr.Error != nil {
			msg = apiErr.Error.Message
		}
	}
	log.Printf("[nasa] apod http %d: %s", status, msg)

	if status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "date must be between") {
		return ErrInvalidDateRange
	}
	return fmt.Errorf("%w: http %d", ErrNASA, status)
}
