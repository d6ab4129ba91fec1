package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// baseClient holds what every upstream API client shares.
type baseClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

func newBaseClient(service string, cfg config.ServiceConfig) baseClient {
	return baseClient{
		service: service,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
	}
}

func (c *baseClient) newRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(ctx, req)
	return req, nil
}

func (c *baseClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// The signed-in user's upstream token wins over the service key.
	if token := requestctx.UpstreamToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := requestctx.RequestID(ctx); requestID != "" {
		req.Header.Set(requestctx.HeaderRequestID, requestID)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
