// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package qdrant implements vectorstore.Store against the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/retry"
	"github.com/heritage-archive/hrag/vectorstore"
)

const (
	DefaultURL         = "http://localhost:6333"
	DefaultCollection  = "heritage_transcripts"
	DefaultVectorSize  = 768
	DefaultHNSWM       = 16
	DefaultEfConstruct = 100

	// DefaultIndexingThreshold is the segment size in kilobytes above which
	// Qdrant builds the HNSW index.
	DefaultIndexingThreshold = 20000

	collectionTimeout = 10 * time.Second
	requestTimeout    = 30 * time.Second
	maxErrorBody      = 512
)

// Error describes a failed Qdrant request.
type Error struct {
	Op         string
	StatusCode int  // 0 when no response was received
	Permanent  bool // set for failures a retry cannot fix, such as an undecodable body
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("qdrant %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("qdrant %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient reports whether repeating the request may succeed.
func (e *Error) Transient() bool {
	if e.Permanent {
		return false
	}
	switch e.StatusCode {
	case 0:
		return !errors.Is(e.Err, context.Canceled)
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTransient(err error) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Transient()
}

// Client talks to one Qdrant collection.
type Client struct {
	baseURL           string
	collection        string
	vectorSize        int
	distance          vectorstore.Distance
	hnswM             int
	efConstruct       int
	indexingThreshold int
	apiKey            string
	http              *http.Client
	policy            retry.Policy
	logger            *slog.Logger
}

var _ vectorstore.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithVectorSize sets the dimensionality used when creating the collection.
func WithVectorSize(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return vectorstore.ErrInvalidVectorSize
		}
		c.vectorSize = n
		return nil
	}
}

// WithDistance sets the distance metric used when creating the collection.
func WithDistance(d vectorstore.Distance) Option {
	return func(c *Client) error {
		if _, err := vectorstore.ParseDistance(string(d)); err != nil {
			return err
		}
		c.distance = d
		return nil
	}
}

// WithHNSW sets the graph parameters used when creating the collection.
func WithHNSW(m, efConstruct int) Option {
	return func(c *Client) error {
		c.hnswM = m
		c.efConstruct = efConstruct
		return nil
	}
}

// WithAPIKey sets the api-key header sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.apiKey = key
		return nil
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) error {
		if h == nil {
			return errors.New("http client is required")
		}
		c.http = h
		return nil
	}
}

// WithRetry sets the attempt count and base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		c.policy.MaxAttempts = maxAttempts
		c.policy.BaseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a client for collection at baseURL.
func New(baseURL, collection string, opts ...Option) (*Client, error) {
	if collection == "" {
		return nil, vectorstore.ErrCollectionRequired
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	c := &Client{
		baseURL:           strings.TrimSuffix(baseURL, "/"),
		collection:        collection,
		vectorSize:        DefaultVectorSize,
		distance:          vectorstore.Cosine,
		hnswM:             DefaultHNSWM,
		efConstruct:       DefaultEfConstruct,
		indexingThreshold: DefaultIndexingThreshold,
		http:              &http.Client{},
		policy:            retry.DefaultPolicy(),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "qdrant", "collection", collection)
	c.policy.Retryable = isTransient
	c.policy.Logger = c.logger
	return c, nil
}

func (c *Client) collectionURL(suffix string) string {
	return c.baseURL + "/collections/" + url.PathEscape(c.collection) + suffix
}

// do sends one request and decodes a 2xx response into out when out is non-nil.
// It returns the status code so callers can branch on it.
func (c *Client) do(ctx context.Context, op, method, target string, timeout time.Duration, in, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, &Error{Op: op, Permanent: true, Err: fmt.Errorf("encoding request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, &Error{Op: op, Permanent: true, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, &Error{Op: op, StatusCode: resp.StatusCode, Permanent: true, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return resp.StatusCode, nil
}

type vectorParams struct {
	Size     int                  `json:"size"`
	Distance vectorstore.Distance `json:"distance"`
}

type hnswConfig struct {
	M           int `json:"m"`
	EfConstruct int `json:"ef_construct"`
}

type optimizersConfig struct {
	IndexingThreshold int `json:"indexing_threshold"`
}

type createCollectionRequest struct {
	Vectors          vectorParams     `json:"vectors"`
	HNSWConfig       hnswConfig       `json:"hnsw_config"`
	OptimizersConfig optimizersConfig `json:"optimizers_config"`
}

// EnsureCollection creates the collection when the existence check reports 404.
func (c *Client) EnsureCollection(ctx context.Context) (bool, error) {
	var exists bool
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		status, err := c.do(ctx, "get collection", http.MethodGet, c.collectionURL(""), collectionTimeout, nil, nil)
		if status == http.StatusNotFound {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if exists {
		c.logger.Info("collection already exists")
		return false, nil
	}

	req := createCollectionRequest{
		Vectors:          vectorParams{Size: c.vectorSize, Distance: c.distance},
		HNSWConfig:       hnswConfig{M: c.hnswM, EfConstruct: c.efConstruct},
		OptimizersConfig: optimizersConfig{IndexingThreshold: c.indexingThreshold},
	}
	if _, err := c.do(ctx, "create collection", http.MethodPut, c.collectionURL(""), collectionTimeout, req, nil); err != nil {
		return false, err
	}
	c.logger.Info("created collection", "size", c.vectorSize, "distance", c.distance)
	return true, nil
}

type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload core.Payload `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

// Upsert writes records as one batch and waits for the write to be applied.
// A retried batch resends the same IDs.
func (c *Client) Upsert(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}
	req := upsertRequest{Points: make([]point, len(records))}
	for i := range records {
		if err := core.ValidateRecord(&records[i], c.vectorSize); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		req.Points[i] = point{ID: records[i].ID, Vector: records[i].Vector, Payload: records[i].Payload}
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		_, err := c.do(ctx, "upsert", http.MethodPut, c.collectionURL("/points?wait=true"), requestTimeout, req, nil)
		return err
	})
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
}

type searchResponse struct {
	Result []struct {
		Score   float32      `json:"score"`
		Payload core.Payload `json:"payload"`
	} `json:"result"`
}

// Search returns up to limit nearest records with payloads and without vectors.
func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		return nil, vectorstore.ErrInvalidLimit
	}
	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}

	var resp searchResponse
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		resp = searchResponse{}
		_, err := c.do(ctx, "search", http.MethodPost, c.collectionURL("/points/search"), requestTimeout, req, &resp)
		return err
	})
	if err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, len(resp.Result))
	for i, hit := range resp.Result {
		results[i] = core.SearchResult{Payload: hit.Payload, Score: hit.Score}
	}
	return results, nil
}
