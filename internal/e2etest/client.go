package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"time"
)

// Client talks to the JSON API of a running server.
type Client struct {
	client *http.Client
	url    string
}

func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{Timeout: time.Minute}, //nolint:exhaustruct // defaults are fine
		url:    url,
	}
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Do sends body encoded as JSON, or verbatim when it is a []byte, and returns the response with its body read.
func (c *Client) Do(ctx context.Context, method, urlPath string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, nil, errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create request")
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, errors.Wrap(err, "do request", slog.String("method", method), slog.String("path", urlPath))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read response body")
	}
	return resp, data, nil
}

// DoJSON is Do that expects status and decodes the response body into dst unless dst is nil.
func (c *Client) DoJSON(ctx context.Context, method, urlPath string, body any, status int, dst any) error {
	resp, data, err := c.Do(ctx, method, urlPath, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != status {
		return errors.New("unexpected status code",
			slog.Int("status", resp.StatusCode), slog.Int("want", status), slog.String("body", string(data)))
	}
	if dst == nil {
		return nil
	}
	if err = json.Unmarshal(data, dst); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// CreateCase opens a new case and returns it.
func (c *Client) CreateCase(ctx context.Context, caseID, analystName string) (models.Case, error) {
	var created models.Case
	body := map[string]string{"caseId": caseID, "analystName": analystName}
	if err := c.DoJSON(ctx, http.MethodPost, "/api/cases", body, http.StatusCreated, &created); err != nil {
		return models.Case{}, errors.Wrap(err, "create case")
	}
	return created, nil
}

// AddTask appends an open task to the case checklist and returns the updated case.
func (c *Client) AddTask(ctx context.Context, id, text string) (models.Case, error) {
	var updated models.Case
	path := "/api/cases/" + neturl.PathEscape(id) + "/tasks"
	if err := c.DoJSON(ctx, http.MethodPost, path, map[string]string{"text": text}, http.StatusOK, &updated); err != nil {
		return models.Case{}, errors.Wrap(err, "add task")
	}
	return updated, nil
}

// Export downloads the standard report of the case in format.
func (c *Client) Export(ctx context.Context, id, format string) ([]byte, error) {
	path := "/api/cases/" + neturl.PathEscape(id) + "/export?format=" + neturl.QueryEscape(format)
	resp, data, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "export case")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status code",
			slog.Int("status", resp.StatusCode), slog.String("body", string(data)))
	}
	return data, nil
}
