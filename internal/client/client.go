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

	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the booking API. Error returns the server's
// message unchanged.
type APIError struct {
	Status  int
	Code    string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Details
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("booking API returned %d", e.Status)
}

// Unwrap maps known error codes back to the booking package's errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "slot_unavailable":
		return booking.ErrSlotUnavailable
	case "slot_being_booked":
		return booking.ErrSlotBeingBooked
	case "invalid_date":
		return booking.ErrInvalidDate
	default:
		return nil
	}
}

// Client talks to the public booking endpoints. It satisfies booking.SlotFetcher and
// booking.Submitter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func New(baseURL string, httpClient *http.Client, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

func (c *Client) FetchSlots(ctx context.Context, date string) (booking.SlotList, error) {
	var list booking.SlotList
	path := "/availability/slots?" + url.Values{"date": {date}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return booking.SlotList{}, err
	}
	if list.Slots == nil {
		list.Slots = []string{}
	}
	return list, nil
}

func (c *Client) SubmitAppointment(ctx context.Context, req booking.Request) (*booking.Appointment, error) {
	var appt booking.Appointment
	if err := c.doJSON(ctx, http.MethodPost, "/appointments", req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Code = payload.Error
			apiErr.Details = payload.Details
		} else {
			apiErr.Details = strings.TrimSpace(string(respBody))
		}
		c.logger.Debug("booking API non-2xx response", "status", resp.StatusCode, "path", path, "code", apiErr.Code)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
