package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

// Error is the error object returned by the wallet on a failed call
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

type (
	request struct {
		JsonRpc string `json:"jsonrpc"`
		Id      uint64 `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}
	response struct {
		Id     uint64          `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
)

// Client talks JSON-RPC 2.0 to monero-wallet-rpc
type Client struct {
	url     string
	headers map[string]string
	client  *http.Client
	nextId  atomic.Uint64
}

func New(config Config) (c *Client) {
	c = &Client{
		url:     config.Url,
		headers: config.CustomHeaders,
		client:  config.Client,
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	return c
}

// Do invokes method with params and decodes the result into result.
// result may be nil for methods without output
func (c *Client) Do(ctx context.Context, method string, params any, result any) (err error) {
	body, err := json.Marshal(request{
		JsonRpc: "2.0",
		Id:      c.nextId.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to prepare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		contents, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("unexpected status calling %s: %d: %s", method, res.StatusCode, contents)
	}

	var out response
	err = json.NewDecoder(res.Body).Decode(&out)
	if err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", method, err)
	}
	if out.Error != nil {
		return out.Error
	}
	if result == nil || len(out.Result) == 0 {
		return nil
	}

	err = json.Unmarshal(out.Result, result)
	if err != nil {
		return fmt.Errorf("failed to unmarshal result of %s: %w", method, err)
	}
	return nil
}
