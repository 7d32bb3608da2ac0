package garage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	DefaultCallTimeout = 5 * time.Second
)

// DefaultBackoff allows five attempts, roughly three seconds apart at most.
var DefaultBackoff = wait.Backoff{
	Duration: 200 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
	Steps:    5,
}

type AdminClient struct {
	*ClusterClient
	*AccessKeyClient
	*BucketClient
	*PermissionClient
}

type Option func(*adminAPIHttpClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *adminAPIHttpClient) {
		a.httpClient = c
	}
}

// WithCallTimeout bounds each individual request attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(a *adminAPIHttpClient) {
		a.callTimeout = d
	}
}

// WithRetry sets the backoff applied to transient errors. Steps is the
// total number of attempts; a value of 1 disables retries.
func WithRetry(b wait.Backoff) Option {
	return func(a *adminAPIHttpClient) {
		a.backoff = b
	}
}

// NewClient returns a client for the Garage admin API v2 served at apiAddr.
func NewClient(apiAddr string, token string, opts ...Option) *AdminClient {
	baseClient := &adminAPIHttpClient{
		httpClient:  &http.Client{},
		token:       token,
		baseURL:     apiAddr,
		callTimeout: DefaultCallTimeout,
		backoff:     DefaultBackoff,
	}
	for _, opt := range opts {
		opt(baseClient)
	}
	if baseClient.backoff.Steps < 1 {
		baseClient.backoff.Steps = 1
	}

	return &AdminClient{
		ClusterClient:    &ClusterClient{baseClient},
		AccessKeyClient:  &AccessKeyClient{baseClient},
		BucketClient:     &BucketClient{baseClient},
		PermissionClient: &PermissionClient{baseClient},
	}
}

// SingleAttempt returns a cluster client sharing c's transport and token that
// never retries. Callers polling on their own schedule use it.
func (c *AdminClient) SingleAttempt() *ClusterClient {
	base := *c.ClusterClient.adminAPIHttpClient
	base.backoff = wait.Backoff{Steps: 1}
	return &ClusterClient{&base}
}

type adminAPIHttpClient struct {
	httpClient  *http.Client
	token       string
	baseURL     string
	callTimeout time.Duration
	backoff     wait.Backoff
}

// call performs one admin API operation. Transient failures are retried
// according to the client backoff; the last transient error is returned once
// attempts run out. A non-nil out receives the decoded JSON response body.
func (c *adminAPIHttpClient) call(ctx context.Context,
	op string,
	method string,
	path string,
	queryParams *url.Values,
	in any,
	out any,
) error {
	log := logf.FromContext(ctx).WithValues("op", op)

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Kind: Permanent, Err: fmt.Errorf("marshal request: %w", err)}
		}
	}

	var lastErr error
	attempt := 0
	err := wait.ExponentialBackoffWithContext(ctx, c.backoff, func(ctx context.Context) (bool, error) {
		attempt++
		err := c.attempt(ctx, op, method, path, queryParams, body, out)
		if err == nil {
			return true, nil
		}
		if !IsTransient(err) {
			return false, err
		}
		lastErr = err
		log.V(1).Info("Admin API call failed", "attempt", attempt, "error", err.Error())
		return false, nil
	})
	if err != nil && wait.Interrupted(err) && lastErr != nil {
		return lastErr
	}
	return err
}

func (c *adminAPIHttpClient) attempt(ctx context.Context,
	op string,
	method string,
	path string,
	queryParams *url.Values,
	body []byte,
	out any,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	response, err := c.doRequest(ctx, method, path, queryParams, reader)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok {
			apiErr.Op = op
		}
		return err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return statusError(op, response)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return &APIError{Op: op, Kind: Permanent, StatusCode: response.StatusCode,
			Err: fmt.Errorf("decode response body: %w", err)}
	}
	return nil
}

func (c *adminAPIHttpClient) doRequest(ctx context.Context,
	method string,
	path string,
	queryParams *url.Values,
	body io.Reader,
) (*http.Response, error) {
	op := method + " " + path

	fullURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, &APIError{Op: op, Kind: Permanent, Err: fmt.Errorf("constructing endpoint path: %w", err)}
	}

	requestURL, err := url.Parse(fullURL)
	if err != nil {
		return nil, &APIError{Op: op, Kind: Permanent, Err: fmt.Errorf("invalid url: %w", err)}
	}

	if queryParams != nil {
		query := requestURL.Query()
		for k, values := range *queryParams {
			for _, v := range values {
				query.Add(k, v)
			}
		}
		requestURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), body)
	if err != nil {
		return nil, &APIError{Op: op, Kind: Permanent, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	return resp, nil
}
