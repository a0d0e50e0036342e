package genctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidgend/pkg/types"
)

// Client talks to a vidgend daemon over HTTP. Submit blocks for the full
// generation, so its HTTP client carries no timeout; the daemon bounds
// execution server-side.
type Client struct {
	baseURL string
	http    *http.Client
	long    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		long:    &http.Client{},
	}
}

// Submit sends a generation request and blocks until the job reaches a
// terminal state.
func (c *Client) Submit(req types.GenerateRequest) (types.GenerateResponse, error) {
	var out types.GenerateResponse
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	resp, err := c.long.Post(c.baseURL+"/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Cancel requests cancellation of a queued or running job.
func (c *Client) Cancel(jobID string) (types.CancelResponse, error) {
	var out types.CancelResponse
	resp, err := c.http.Post(c.baseURL+"/jobs/"+jobID+"/cancel", "application/json", nil)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Queue fetches current scheduler load.
func (c *Client) Queue() (types.QueueStatusResponse, error) {
	var out types.QueueStatusResponse
	err := c.getJSON("/queue", &out)
	return out, err
}

// GPUs fetches detected devices and pool size.
func (c *Client) GPUs() (types.GPUsResponse, error) {
	var out types.GPUsResponse
	err := c.getJSON("/gpus", &out)
	return out, err
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e types.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return fmt.Errorf("server: %s (status %d)", e.Error, resp.StatusCode)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
