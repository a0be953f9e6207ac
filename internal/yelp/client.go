package yelp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

const (
	DefaultBaseURL = "https://api.yelp.com"
	chatPath       = "/ai/chat/v2"

	// MaxReviewLimit is the most reviews the reviews endpoint returns per call.
	MaxReviewLimit = 3

	DefaultLocale    = "en_US"
	DefaultLatitude  = 40.7128
	DefaultLongitude = -74.0060
)

// Client performs the Yelp API operations used by the analysis pipeline.
type Client interface {
	// Chat sends a natural-language query to Yelp AI Chat.
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	// BusinessDetails fetches each business by id. Ids that fail are omitted.
	BusinessDetails(ctx context.Context, ids []string) []models.Business
	// Reviews fetches up to MaxReviewLimit reviews per id. Ids that fail map to
	// an empty list.
	Reviews(ctx context.Context, ids []string) models.ReviewMap
}

// ChatRequest is a single turn of a Yelp AI Chat conversation.
type ChatRequest struct {
	Query  string
	Locale string
	// Latitude and Longitude fall back to the package defaults when nil.
	// Zero is a valid coordinate.
	Latitude  *float64
	Longitude *float64
	// ChatID continues an earlier conversation when set.
	ChatID string
}

// ChatResult is the normalized Yelp AI Chat response.
type ChatResult struct {
	ChatID      string
	Text        string
	Businesses  []models.Business
	BusinessIDs []string
	Raw         json.RawMessage
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithReviewLimit sets the page size for review fetches, capped at MaxReviewLimit.
func WithReviewLimit(n int) Option {
	return func(c *httpClient) {
		if n > 0 && n <= MaxReviewLimit {
			c.reviewLimit = n
		}
	}
}

// WithConcurrency bounds how many detail or review fetches run at once.
func WithConcurrency(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	http        *http.Client
	reviewLimit int
	concurrency int
}

// NewClient creates a Yelp API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		reviewLimit: MaxReviewLimit,
		concurrency: 1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatRequest struct {
	Query       string      `json:"query"`
	UserContext userContext `json:"user_context"`
	ChatID      string      `json:"chat_id,omitempty"`
}

type userContext struct {
	Locale    string  `json:"locale"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type chatResponse struct {
	ChatID   string `json:"chat_id"`
	Response *struct {
		Text            string           `json:"text"`
		BusinessResults []businessResult `json:"business_results"`
		Tags            []tag            `json:"tags"`
	} `json:"response"`
}

// businessResult holds businesses either under search_results or directly.
type businessResult struct {
	SearchResults *struct {
		Businesses []models.Business `json:"businesses"`
	} `json:"search_results"`
	Businesses []models.Business `json:"businesses"`
}

type tag struct {
	TagType string `json:"tag_type"`
	Meta    struct {
		BusinessID string `json:"business_id"`
	} `json:"meta"`
}

type reviewsResponse struct {
	Reviews []models.Review `json:"reviews"`
}

func (c *httpClient) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	payload := chatRequest{
		Query: req.Query,
		UserContext: userContext{
			Locale:    req.Locale,
			Latitude:  DefaultLatitude,
			Longitude: DefaultLongitude,
		},
		ChatID: req.ChatID,
	}
	if payload.UserContext.Locale == "" {
		payload.UserContext.Locale = DefaultLocale
	}
	if req.Latitude != nil {
		payload.UserContext.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		payload.UserContext.Longitude = *req.Longitude
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: marshal chat request")
	}

	respBody, err := c.do(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "yelp: chat")
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, eris.Wrap(err, "yelp: unmarshal chat response")
	}

	result := normalizeChat(resp)
	result.Raw = respBody

	zap.L().Debug("yelp chat complete",
		zap.String("chat_id", result.ChatID),
		zap.Int("businesses", len(result.Businesses)),
		zap.Int("business_ids", len(result.BusinessIDs)),
	)

	return result, nil
}

// normalizeChat merges businesses from both result shapes, in encounter
// order, and collects business ids from tags independently.
func normalizeChat(resp chatResponse) *ChatResult {
	result := &ChatResult{
		ChatID:      resp.ChatID,
		Businesses:  []models.Business{},
		BusinessIDs: []string{},
	}
	if resp.Response == nil {
		return result
	}

	result.Text = resp.Response.Text

	for _, br := range resp.Response.BusinessResults {
		if br.SearchResults != nil && br.SearchResults.Businesses != nil {
			result.Businesses = append(result.Businesses, br.SearchResults.Businesses...)
		} else if br.Businesses != nil {
			result.Businesses = append(result.Businesses, br.Businesses...)
		}
	}

	for _, t := range resp.Response.Tags {
		if t.TagType == "business" && t.Meta.BusinessID != "" {
			result.BusinessIDs = append(result.BusinessIDs, t.Meta.BusinessID)
		}
	}

	return result
}

func (c *httpClient) BusinessDetails(ctx context.Context, ids []string) []models.Business {
	slots := make([]*models.Business, len(ids))

	c.fanOut(ctx, ids, func(ctx context.Context, i int, id string) {
		b, err := c.businessDetail(ctx, id)
		if err != nil {
			zap.L().Warn("failed to fetch business", zap.String("business_id", id), zap.Error(err))
			return
		}
		slots[i] = b
	})

	businesses := make([]models.Business, 0, len(ids))
	for _, b := range slots {
		if b != nil {
			businesses = append(businesses, *b)
		}
	}
	return businesses
}

func (c *httpClient) businessDetail(ctx context.Context, id string) (*models.Business, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.baseURL+"/v3/businesses/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "yelp: business %s", id)
	}

	var b models.Business
	if err := json.Unmarshal(respBody, &b); err != nil {
		return nil, eris.Wrapf(err, "yelp: unmarshal business %s", id)
	}
	return &b, nil
}

func (c *httpClient) Reviews(ctx context.Context, ids []string) models.ReviewMap {
	slots := make([][]models.Review, len(ids))

	c.fanOut(ctx, ids, func(ctx context.Context, i int, id string) {
		reviews, err := c.reviews(ctx, id)
		if err != nil {
			zap.L().Warn("failed to fetch reviews", zap.String("business_id", id), zap.Error(err))
			reviews = []models.Review{}
		}
		slots[i] = reviews
	})

	all := make(models.ReviewMap, len(ids))
	for i, id := range ids {
		all[id] = slots[i]
	}

	zap.L().Debug("yelp reviews fetched",
		zap.Int("businesses", len(ids)),
		zap.Int("reviews", all.Total()),
	)
	return all
}

func (c *httpClient) reviews(ctx context.Context, id string) ([]models.Review, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.reviewLimit))
	endpoint := fmt.Sprintf("%s/v3/businesses/%s/reviews?%s", c.baseURL, url.PathEscape(id), q.Encode())

	respBody, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "yelp: reviews %s", id)
	}

	var resp reviewsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, eris.Wrapf(err, "yelp: unmarshal reviews %s", id)
	}
	if resp.Reviews == nil {
		return []models.Review{}, nil
	}
	return resp.Reviews, nil
}

// fanOut runs fn for every id with at most c.concurrency in flight. fn owns
// its own error handling so one id never cancels the others.
func (c *httpClient) fanOut(ctx context.Context, ids []string, fn func(ctx context.Context, i int, id string)) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			fn(ctx, i, id)
			return nil
		})
	}

	_ = g.Wait()
}

func (c *httpClient) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
