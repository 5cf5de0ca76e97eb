// Package client calls a running dashboard's JSON API.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/web"
)

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

type apiError struct {
	Error string `json:"error"`
}

// Predict posts one prediction. Incomplete input and computation failures come
// back as a response with OK=false; only transport and request errors are errors.
func (c *Client) Predict(model string, values features.Values) (web.PredictionResponse, error) {
	req := web.PredictionRequest{Model: model, Features: values[:]}

	resp, err := c.rest.R().
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.base + "/api/predict")
	if err != nil {
		return web.PredictionResponse{}, err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusUnprocessableEntity:
		var out web.PredictionResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return web.PredictionResponse{}, fmt.Errorf("decode prediction: %w", err)
		}
		return out, nil
	default:
		return web.PredictionResponse{}, statusError(resp)
	}
}

// Models lists the models the dashboard serves.
func (c *Client) Models() ([]ml.ModelInfo, error) {
	var out []ml.ModelInfo
	resp, err := c.rest.R().
		SetResult(&out).
		Get(c.base + "/api/models")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp)
	}
	return out, nil
}

func statusError(resp *resty.Response) error {
	var e apiError
	if err := json.Unmarshal(resp.Body(), &e); err == nil && e.Error != "" {
		return fmt.Errorf("dashboard: %d %s", resp.StatusCode(), e.Error)
	}
	return fmt.Errorf("dashboard: %s", resp.Status())
}
