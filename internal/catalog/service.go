package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/aigov-api/internal/cache"
	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/pricing"
)

// Service orchestrates catalog lookups, filtering, and caching.
type Service struct {
	provider     Provider
	cache        *cache.JSON
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Provider     Provider
	Cache        *cache.JSON
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ProductView is the public product payload with display-formatted price.
type ProductView struct {
	Product
	PriceDisplay string `json:"priceDisplay"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductView `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Provider == nil {
		return nil, errors.New("catalog: provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		provider:     cfg.Provider,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// Provider exposes the underlying catalog provider.
func (s *Service) Provider() Provider { return s.provider }

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Query = strings.ToLower(strings.TrimSpace(values.Get("q")))
	params.Category = strings.ToLower(strings.TrimSpace(values.Get("category")))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = l
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts returns filtered products in catalog order.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	key := cache.Key("products", params.Category, params.Query, params.Page, params.Limit)
	var cached ProductListResult
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	matched := make([]ProductView, 0)
	for _, p := range s.provider.List() {
		if params.Category != "" && !strings.EqualFold(p.Category, params.Category) {
			continue
		}
		if params.Query != "" && !matchesQuery(p, params.Query) {
			continue
		}
		matched = append(matched, toView(p))
	}
	start, end := common.PageBounds(params.Page, params.Limit, len(matched))
	result := ProductListResult{
		Items: matched[start:end],
		Total: len(matched),
		Page:  params.Page,
		Limit: params.Limit,
	}
	_ = s.cache.Set(ctx, key, result)
	return result, nil
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(id string) (ProductView, error) {
	p, ok := s.provider.Get(id)
	if !ok {
		return ProductView{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return toView(p), nil
}

// Categories lists the distinct product categories.
func (s *Service) Categories() []string {
	return s.provider.Categories()
}

func matchesQuery(p Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q)
}

func toView(p Product) ProductView {
	return ProductView{Product: p, PriceDisplay: pricing.Format(p.UnitPrice)}
}
