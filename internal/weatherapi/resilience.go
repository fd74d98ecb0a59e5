package weatherapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errEmptyBody    = errors.New("empty response body")
)

// BreakerConfig tunes the circuit breaker guarding the remote service.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ConsecutiveFailures opens the circuit once reached. Zero means 5.
	ConsecutiveFailures uint32
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A 4xx from the service is the caller's problem, not an outage.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *weather.APIError
			return errors.As(err, &apiErr) && apiErr.Kind == weather.KindService && apiErr.StatusCode < 500
		},
	})
}

// errorBody is the error envelope returned by the service on non-2xx responses.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doRequest executes one request through the circuit breaker and returns the
// raw JSON body. It never retries; callers decide whether to re-invoke.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (json.RawMessage, error) {
	if client == nil {
		return nil, &weather.APIError{Kind: weather.KindRequest, Message: errNoHTTPClient.Error(), Err: errNoHTTPClient}
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, &weather.APIError{Kind: weather.KindRequest, Message: err.Error(), Err: err}
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, &weather.APIError{Kind: weather.KindTransport, Message: execErr.Error(), Err: execErr}
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &weather.APIError{
				Kind:       weather.KindTransport,
				StatusCode: resp.StatusCode,
				Message:    readErr.Error(),
				Err:        readErr,
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, serviceError(resp.StatusCode, body)
		}

		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			wrapped := fmt.Errorf("%w: %v", errCircuitOpen, err)
			return nil, &weather.APIError{Kind: weather.KindTransport, Message: wrapped.Error(), Err: wrapped}
		}
		return nil, weather.AsAPIError(err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &weather.APIError{Kind: weather.KindTransport, Message: "unexpected result type from circuit breaker"}
	}
	return decodeBody(body)
}

// serviceError turns a non-success response into an APIError, preferring the
// message from the service's own error envelope.
func serviceError(status int, body []byte) *weather.APIError {
	apiErr := &weather.APIError{
		Kind:       weather.KindService,
		StatusCode: status,
		Message:    http.StatusText(status),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		apiErr.Code = eb.Error.Code
		apiErr.Message = eb.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("unexpected status code %d", status)
	}
	return apiErr
}

func decodeBody(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, &weather.APIError{Kind: weather.KindEmpty, Message: errEmptyBody.Error(), Err: errEmptyBody}
	}
	if !json.Valid(trimmed) {
		return nil, &weather.APIError{Kind: weather.KindTransport, Message: "response is not valid JSON"}
	}
	return json.RawMessage(trimmed), nil
}
