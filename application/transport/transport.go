// Package transport implements the terminal pipeline stage (spec §6.2):
// POSTs the operation's JSON body and decodes a {data?, errors?,
// extensions?} response. Grounded on the teacher's plain net/http.Client
// usage style (cmd/api/main.go), adapted from server handler to client
// call.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"gqlcache/application/exchange"
	"gqlcache/domain/operation"
	"gqlcache/pkg/gqlerrors"
	"gqlcache/pkg/ratelimit"

	"go.uber.org/zap"
)

type wireRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type wireResponse struct {
	Data       interface{}              `json:"data,omitempty"`
	Errors     []operation.GraphQLError `json:"errors,omitempty"`
	Extensions map[string]interface{}   `json:"extensions,omitempty"`
}

type stage struct {
	httpClient *http.Client
	limiter    *ratelimit.TokenBucketLimiter
	logger     *zap.Logger
}

// NewFactory returns the terminal transport stage factory. limiter may
// be nil to disable rate limiting.
func NewFactory(httpClient *http.Client, limiter *ratelimit.TokenBucketLimiter, logger *zap.Logger) exchange.Factory {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next exchange.Exchange, client exchange.ClientHandle) exchange.Exchange {
		return &stage{httpClient: httpClient, limiter: limiter, logger: logger.Named("transport")}
	}
}

func (s *stage) Run(ctx context.Context, op *operation.Operation) (*operation.Result, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, op.Options.URL)
		if err != nil {
			return nil, gqlerrors.Network("rate limiter error", err)
		}
		if !allowed {
			return nil, gqlerrors.Network("transport rate limit exceeded for "+op.Options.URL, nil)
		}
	}

	variables, err := op.Descriptor.BuildVariables()
	if err != nil {
		return nil, gqlerrors.Programming("failed to build variables: " + err.Error())
	}

	body, err := json.Marshal(wireRequest{
		Query:         op.Query.Text,
		OperationName: op.Query.OperationName,
		Variables:     variables,
	})
	if err != nil {
		return nil, gqlerrors.Programming("failed to marshal request body: " + err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, op.Options.URL, bytes.NewReader(body))
	if err != nil {
		return nil, gqlerrors.Network("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range op.Options.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, gqlerrors.Network("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gqlerrors.Network("failed to read response body", err)
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, gqlerrors.Decode("failed to decode response JSON", err)
	}

	return &operation.Result{
		Key:  op.Key,
		Meta: op.Meta,
		Response: operation.Response{
			Data:       wire.Data,
			Errors:     wire.Errors,
			Extensions: wire.Extensions,
			Debug:      operation.DebugInfo{Source: operation.SourceNetwork},
		},
	}, nil
}
