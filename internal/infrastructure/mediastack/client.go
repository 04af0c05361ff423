// Package mediastack implements the paged news feed client.
package mediastack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newsdex/internal/config"
	"newsdex/internal/domain"
	"newsdex/internal/ports"
)

const dayFormat = "2006-01-02"

// Client pulls ranked article pages from a Mediastack-compatible API.
type Client struct {
	baseURL   string
	accessKey string
	languages string
	countries string
	pageSize  int
	http      *http.Client
}

var _ ports.Feed = (*Client)(nil)

// New wires a feed client; httpClient defaults to a 20s-timeout client.
// The timeout is an addition over the upstream contract, which specifies
// none: a feed that never answers must not hang a run forever.
func New(cfg config.FeedConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		accessKey: cfg.AccessKey,
		languages: cfg.Languages,
		countries: cfg.Countries,
		pageSize:  cfg.PageSize,
		http:      httpClient,
	}
}

// PageSize reports the fixed page size this client requests.
func (c *Client) PageSize() int {
	return c.pageSize
}

type articlePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	Country     string `json:"country"`
	PublishedAt string `json:"published_at"`
}

type pageResponse struct {
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
		Total  int `json:"total"`
	} `json:"pagination"`
	Data  []articlePayload `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchPage requests one page of articles for the given publish day, sorted
// by popularity. A top-level error object in the body signals failure
// regardless of HTTP status.
func (c *Client) FetchPage(ctx context.Context, day time.Time, offset int) (domain.FeedPage, error) {
	reqURL, err := c.buildURL(day, offset)
	if err != nil {
		return domain.FeedPage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FeedPage{}, fmt.Errorf("request feed page: %w", err)
	}
	defer resp.Body.Close()

	var payload pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.FeedPage{}, fmt.Errorf("decode feed page: %w", err)
	}

	if payload.Error != nil {
		return domain.FeedPage{}, fmt.Errorf("feed error %s: %s", payload.Error.Code, payload.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.FeedPage{}, fmt.Errorf("feed returned %s", resp.Status)
	}

	page := domain.FeedPage{
		Articles: make([]domain.Article, 0, len(payload.Data)),
		Total:    payload.Pagination.Total,
	}
	for _, item := range payload.Data {
		page.Articles = append(page.Articles, toArticle(item))
	}

	return page, nil
}

func (c *Client) buildURL(day time.Time, offset int) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid feed url %s: %w", c.baseURL, err)
	}

	query := parsed.Query()
	query.Set("access_key", c.accessKey)
	query.Set("languages", c.languages)
	query.Set("countries", c.countries)
	query.Set("sort", "popularity")
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("date", day.Format(dayFormat))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func toArticle(item articlePayload) domain.Article {
	publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
	if err != nil {
		// the feed occasionally drops the zone suffix
		publishedAt, err = time.Parse("2006-01-02T15:04:05", item.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}
	}

	return domain.Article{
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		Source:      item.Source,
		Image:       item.Image,
		Category:    item.Category,
		Language:    item.Language,
		Country:     item.Country,
		PublishedAt: publishedAt.UTC(),
	}
}
