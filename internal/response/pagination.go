// File: internal/response/pagination.go
package response

import (
	"campusmart/internal/models"
	"campusmart/internal/services"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ===============================
// PAGINATION CONFIGURATION
// ===============================

// PaginationConfig holds pagination configuration
type PaginationConfig struct {
	DefaultPageSize int    `json:"default_page_size"`
	MaxPageSize     int    `json:"max_page_size"`
	PageParam       string `json:"page_param"`
	SizeParam       string `json:"size_param"`
	SortParam       string `json:"sort_param"`
	OrderParam      string `json:"order_param"`
}

// DefaultPaginationConfig returns default pagination configuration
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		PageParam:       "page",
		SizeParam:       "page_size",
		SortParam:       "sort",
		OrderParam:      "order",
	}
}

// ===============================
// PAGINATION TYPES
// ===============================

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Sort     string `json:"sort,omitempty"`
	Order    string `json:"order,omitempty"`
	Offset   int    `json:"offset"`
}

// ToModelParams converts parsed query parameters into the repository
// pagination form.
func (p *PaginationParams) ToModelParams() models.PaginationParams {
	return models.PaginationParams{
		Limit:  p.PageSize,
		Offset: p.Offset,
		Sort:   p.Sort,
		Order:  p.Order,
	}
}

// PaginationLinks represents pagination navigation links
type PaginationLinks struct {
	First    string `json:"first,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Last     string `json:"last,omitempty"`
	Self     string `json:"self"`
}

// ===============================
// PAGINATION PARSER
// ===============================

// PaginationParser helps parse pagination parameters from requests
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a new pagination parser
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromQuery parses pagination parameters from query string
func (p *PaginationParser) ParseFromQuery(query url.Values) (*PaginationParams, error) {
	params := &PaginationParams{
		Page:     1,
		PageSize: p.config.DefaultPageSize,
		Order:    "desc",
	}

	if pageStr := query.Get(p.config.PageParam); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page parameter: %s", pageStr)
		}
		if page < 1 {
			return nil, fmt.Errorf("page must be greater than 0")
		}
		params.Page = page
	}

	if sizeStr := query.Get(p.config.SizeParam); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page_size parameter: %s", sizeStr)
		}
		if size < 1 {
			return nil, fmt.Errorf("page_size must be greater than 0")
		}
		if size > p.config.MaxPageSize {
			return nil, fmt.Errorf("page_size cannot exceed %d", p.config.MaxPageSize)
		}
		params.PageSize = size
	}

	if sort := query.Get(p.config.SortParam); sort != "" {
		if err := p.validateSortField(sort); err != nil {
			return nil, err
		}
		params.Sort = sort
	}

	if order := query.Get(p.config.OrderParam); order != "" {
		order = strings.ToLower(order)
		if order != "asc" && order != "desc" {
			return nil, fmt.Errorf("order must be either 'asc' or 'desc'")
		}
		params.Order = order
	}

	params.Offset = CalculateOffset(params.Page, params.PageSize)

	return params, nil
}

// ParseFromRequest parses pagination parameters from HTTP request
func (p *PaginationParser) ParseFromRequest(r *http.Request) (*PaginationParams, error) {
	return p.ParseFromQuery(r.URL.Query())
}

// validateSortField validates sort field against allowed values
func (p *PaginationParser) validateSortField(sort string) error {
	allowedFields := []string{
		"id", "created_at", "updated_at", "price", "views",
		"likes", "featured", "title", "category", "status",
	}

	for _, field := range allowedFields {
		if sort == field {
			return nil
		}
	}

	return fmt.Errorf("invalid sort field: %s. Allowed fields: %s",
		sort, strings.Join(allowedFields, ", "))
}

// ===============================
// PAGINATION BUILDER
// ===============================

// PaginationBuilder helps build pagination responses
type PaginationBuilder struct {
	config *PaginationConfig
}

// NewPaginationBuilder creates a new pagination builder
func NewPaginationBuilder(config *PaginationConfig) *PaginationBuilder {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationBuilder{config: config}
}

// BuildMeta creates pagination metadata
func (pb *PaginationBuilder) BuildMeta(params *PaginationParams, total int64) *PaginationMeta {
	totalPages := CalculateTotalPages(total, params.PageSize)

	return &PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// BuildLinks creates pagination navigation links
func (pb *PaginationBuilder) BuildLinks(r *http.Request, params *PaginationParams, total int64) *PaginationLinks {
	totalPages := CalculateTotalPages(total, params.PageSize)
	baseURL := pb.getBaseURL(r)
	query := r.URL.Query()

	links := &PaginationLinks{
		Self: pb.buildLink(baseURL, query, params.Page, params.PageSize),
	}

	if params.Page > 1 {
		links.First = pb.buildLink(baseURL, query, 1, params.PageSize)
		links.Previous = pb.buildLink(baseURL, query, params.Page-1, params.PageSize)
	}
	if params.Page < totalPages {
		links.Next = pb.buildLink(baseURL, query, params.Page+1, params.PageSize)
		links.Last = pb.buildLink(baseURL, query, totalPages, params.PageSize)
	}

	return links
}

// getBaseURL constructs the base URL for pagination links
func (pb *PaginationBuilder) getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)
}

// buildLink constructs a pagination link
func (pb *PaginationBuilder) buildLink(baseURL string, query url.Values, page, pageSize int) string {
	linkQuery := make(url.Values)
	for k, v := range query {
		linkQuery[k] = v
	}
	linkQuery.Set(pb.config.PageParam, strconv.Itoa(page))
	linkQuery.Set(pb.config.SizeParam, strconv.Itoa(pageSize))
	return fmt.Sprintf("%s?%s", baseURL, linkQuery.Encode())
}

// ===============================
// HELPERS
// ===============================

// CalculateOffset calculates offset from page and page size
func CalculateOffset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// CalculateTotalPages calculates total pages from total items and page size
func CalculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// ===============================
// RESPONSE BUILDERS
// ===============================

// WriteModelPage writes a repository page in the standard envelope.
func (b *Builder) WriteModelPage(w http.ResponseWriter, r *http.Request, data interface{}, meta models.PaginationMeta) {
	response := b.SuccessWithMeta(r.Context(), data, &ResponseMeta{
		Pagination: &PaginationMeta{
			Page:       meta.CurrentPage,
			PageSize:   meta.ItemsPerPage,
			Total:      meta.TotalItems,
			TotalPages: meta.TotalPages,
			HasNext:    meta.HasNext,
			HasPrev:    meta.CurrentPage > 1,
		},
	})
	b.WriteJSON(w, r, response, http.StatusOK)
}

// WriteInvalidPagination reports a bad pagination query.
func WriteInvalidPagination(w http.ResponseWriter, r *http.Request, err error) {
	QuickError(w, r, services.NewValidationError(
		fmt.Sprintf("invalid pagination parameters: %s", err.Error()), err))
}
