package governance

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/aigov-api/internal/cache"
	"github.com/noah-isme/aigov-api/internal/common"
	"github.com/noah-isme/aigov-api/internal/lock"
	"github.com/noah-isme/aigov-api/internal/pricing"
)

const dashboardKey = "dashboard"

// ProjectView adds the derived metrics rendered by the dashboard.
type ProjectView struct {
	Project
	CompletionRate        float64 `json:"completionRate"`
	VerificationRate      float64 `json:"verificationRate"`
	ROI                   float64 `json:"roi"`
	InvestmentDisplay     string  `json:"investmentDisplay"`
	ExpectedReturnDisplay string  `json:"expectedReturnDisplay"`
}

// NewProjectView derives the rendered metrics of p.
func NewProjectView(p Project) ProjectView {
	return ProjectView{
		Project:               p,
		CompletionRate:        p.CompletionRate(),
		VerificationRate:      p.VerificationRate(),
		ROI:                   p.ROI(),
		InvestmentDisplay:     pricing.Format(p.Investment),
		ExpectedReturnDisplay: pricing.Format(p.ExpectedReturn),
	}
}

// Summary aggregates the portfolio for the dashboard.
type Summary struct {
	TotalProjects       int            `json:"totalProjects"`
	ByStatus            map[Status]int `json:"byStatus"`
	AverageCompletion   float64        `json:"averageCompletion"`
	PortfolioROI        float64        `json:"portfolioRoi"`
	VerificationRate    float64        `json:"verificationRate"`
	HighRiskCount       int            `json:"highRiskCount"`
	TotalInvestment     pricing.Money  `json:"totalInvestment"`
	TotalExpectedReturn pricing.Money  `json:"totalExpectedReturn"`
	RecentlyUpdated     []ProjectView  `json:"recentlyUpdated"`
	GeneratedAt         time.Time      `json:"generatedAt"`
}

// Summarize computes the dashboard summary for projects.
func Summarize(projects []Project, now time.Time) Summary {
	out := Summary{
		TotalProjects: len(projects),
		ByStatus:      make(map[Status]int, len(Statuses())),
		GeneratedAt:   now,
	}
	for _, s := range Statuses() {
		out.ByStatus[s] = 0
	}
	var completion float64
	var models, verified int
	for _, p := range projects {
		out.ByStatus[p.Status]++
		completion += p.CompletionRate()
		models += p.ModelsTotal
		verified += p.ModelsVerified
		out.TotalInvestment += p.Investment
		out.TotalExpectedReturn += p.ExpectedReturn
		if p.RiskLevel.Elevated() {
			out.HighRiskCount++
		}
	}
	if len(projects) > 0 {
		out.AverageCompletion = round1(completion / float64(len(projects)))
	}
	out.VerificationRate = percent(float64(verified), float64(models))
	out.PortfolioROI = percent(float64(out.TotalExpectedReturn-out.TotalInvestment), float64(out.TotalInvestment))

	recent := append([]Project(nil), projects...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].UpdatedAt.After(recent[j].UpdatedAt) })
	if len(recent) > 3 {
		recent = recent[:3]
	}
	out.RecentlyUpdated = make([]ProjectView, 0, len(recent))
	for _, p := range recent {
		out.RecentlyUpdated = append(out.RecentlyUpdated, NewProjectView(p))
	}
	return out
}

// ListParams filters the project browser.
type ListParams struct {
	Status Status
	Query  string
	Page   int
	Limit  int
}

// ProjectListResult is one page of the project browser.
type ProjectListResult struct {
	Items []ProjectView
	Total int
	Page  int
	Limit int
}

// Service serves the project portfolio with a cached dashboard summary.
type Service struct {
	Projects     []Project
	Cache        *cache.JSON
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time

	// Lock, when set, lets a single replica rebuild the dashboard after a miss.
	Lock    *lock.Locker
	LockTTL time.Duration
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) limits() (int, int) {
	def, maxLimit := s.DefaultLimit, s.MaxLimit
	if maxLimit < 1 {
		maxLimit = 50
	}
	if def < 1 || def > maxLimit {
		def = min(10, maxLimit)
	}
	return def, maxLimit
}

// ParseListParams validates browser query parameters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	def, maxLimit := s.limits()
	params := ListParams{Page: 1, Limit: def, Query: strings.ToLower(strings.TrimSpace(values.Get("q")))}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			return ListParams{}, common.BadRequest("status", "status must be one of active, review, completed, paused", err)
		}
		params.Status = status
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ListParams{}, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ListParams{}, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = min(limit, maxLimit)
	}
	return params, nil
}

// ListProjects filters by status and by a case-insensitive match on name or owner.
func (s *Service) ListProjects(params ListParams) ProjectListResult {
	matched := make([]Project, 0, len(s.Projects))
	for _, p := range s.Projects {
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		if params.Query != "" &&
			!strings.Contains(strings.ToLower(p.Name), params.Query) &&
			!strings.Contains(strings.ToLower(p.Owner), params.Query) {
			continue
		}
		matched = append(matched, p)
	}
	start, end := common.PageBounds(params.Page, params.Limit, len(matched))
	items := make([]ProjectView, 0, end-start)
	for _, p := range matched[start:end] {
		items = append(items, NewProjectView(p))
	}
	return ProjectListResult{Items: items, Total: len(matched), Page: params.Page, Limit: params.Limit}
}

// GetProject returns one project with its derived metrics.
func (s *Service) GetProject(id string) (ProjectView, error) {
	id = strings.TrimSpace(id)
	for _, p := range s.Projects {
		if p.ID == id {
			return NewProjectView(p), nil
		}
	}
	return ProjectView{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
}

// Dashboard returns the portfolio summary, served from cache while fresh.
// Cache failures fall back to computing the summary.
func (s *Service) Dashboard(ctx context.Context) Summary {
	var cached Summary
	if ok, err := s.Cache.Get(ctx, dashboardKey, &cached); err == nil && ok {
		return cached
	}
	if s.Lock == nil {
		return s.rebuild(ctx)
	}
	var summary Summary
	err := s.Lock.WithLock(ctx, dashboardKey, s.lockTTL(), func(ctx context.Context) error {
		if ok, err := s.Cache.Get(ctx, dashboardKey, &summary); err == nil && ok {
			return nil
		}
		summary = s.rebuild(ctx)
		return nil
	})
	if err != nil {
		return s.rebuild(ctx)
	}
	return summary
}

func (s *Service) rebuild(ctx context.Context) Summary {
	summary := Summarize(s.Projects, s.now())
	_ = s.Cache.Set(ctx, dashboardKey, summary)
	return summary
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 5 * time.Second
	}
	return s.LockTTL
}
