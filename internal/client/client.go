// Package client talks to the booking API. It satisfies the availability and
// creation ports of the booking form, so a form can run against a remote
// server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/party-bookings/internal/availability"
	"github.com/robertarktes/party-bookings/internal/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	adminToken string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AdminBooking is a booking as listed by the admin endpoints.
type AdminBooking struct {
	domain.Booking
	StatusLabel string `json:"statusLabel"`
	DateLabel   string `json:"dateLabel"`
}

type Created struct {
	Booking      domain.Booking `json:"booking"`
	WhatsAppLink string         `json:"whatsappLink"`
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		raw, ok := body.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(body); err != nil {
				return errors.Wrap(err, "encode request")
			}
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}

func apiError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	apiErr := &APIError{Status: status, Message: msg}
	switch status {
	case http.StatusBadRequest:
		return errors.WithSecondaryError(errors.Wrap(domain.ErrInvalidInput, msg), apiErr)
	case http.StatusNotFound:
		return errors.WithSecondaryError(errors.Wrap(domain.ErrNotFound, msg), apiErr)
	case http.StatusConflict:
		return errors.WithSecondaryError(errors.Wrap(domain.ErrConflict, msg), apiErr)
	}
	return apiErr
}

func (c *Client) admin() http.Header {
	return http.Header{"Authorization": []string{"Bearer " + c.adminToken}}
}

func (c *Client) Slots(ctx context.Context) ([]string, error) {
	var out struct {
		Slots []string `json:"slots"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/slots", nil, nil, &out)
	return out.Slots, err
}

func (c *Client) OccupiedSlots(ctx context.Context, date string) (availability.Availability, error) {
	var out availability.Availability
	err := c.do(ctx, http.MethodGet, "/v1/availability?date="+url.QueryEscape(date), nil, nil, &out)
	return out, err
}

// CreateBooking posts a booking under a fresh Idempotency-Key.
func (c *Client) CreateBooking(ctx context.Context, nb domain.NewBooking) (Created, error) {
	var out Created
	header := http.Header{"Idempotency-Key": []string{uuid.NewString()}}
	err := c.do(ctx, http.MethodPost, "/v1/bookings", header, nb, &out)
	return out, err
}

func (c *Client) Create(ctx context.Context, nb domain.NewBooking) (domain.Booking, error) {
	out, err := c.CreateBooking(ctx, nb)
	return out.Booking, err
}

func (c *Client) ListBookings(ctx context.Context, status, query string) ([]AdminBooking, bool, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if query != "" {
		q.Set("q", query)
	}
	path := "/v1/admin/bookings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Bookings []AdminBooking `json:"bookings"`
		Degraded bool           `json:"degraded"`
	}
	err := c.do(ctx, http.MethodGet, path, c.admin(), nil, &out)
	return out.Bookings, out.Degraded, err
}

func (c *Client) GetBooking(ctx context.Context, id uuid.UUID) (AdminBooking, error) {
	var out AdminBooking
	err := c.do(ctx, http.MethodGet, "/v1/admin/bookings/"+id.String(), c.admin(), nil, &out)
	return out, err
}

func (c *Client) ChangeStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	body := map[string]string{"status": status.String()}
	return c.do(ctx, http.MethodPatch, "/v1/admin/bookings/"+id.String()+"/status", c.admin(), body, nil)
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/bookings/"+id.String(), c.admin(), nil, nil)
}

func (c *Client) Content(ctx context.Context) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	err := c.do(ctx, http.MethodGet, "/v1/content", nil, nil, &out)
	return out, err
}

func (c *Client) GetContent(ctx context.Context, key string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/v1/content/"+url.PathEscape(key), nil, nil, &out)
	return out, err
}

func (c *Client) PutContent(ctx context.Context, key string, value json.RawMessage) (domain.Content, error) {
	var out domain.Content
	err := c.do(ctx, http.MethodPut, "/v1/admin/content/"+url.PathEscape(key), c.admin(), value, &out)
	return out, err
}
