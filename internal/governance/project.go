package governance

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/aigov-api/internal/pricing"
)

//go:embed seed/projects.yaml
var defaultSeed []byte

// ErrNotFound is returned when a project id is unknown.
var ErrNotFound = errors.New("project not found")

// Status is the lifecycle stage of a governance project.
type Status string

const (
	StatusActive    Status = "active"
	StatusReview    Status = "review"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusActive, StatusReview, StatusCompleted, StatusPaused}
}

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Statuses() {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// RiskLevel grades the potential impact of a project's models.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Elevated reports whether the level counts as high risk on the dashboard.
func (r RiskLevel) Elevated() bool {
	return r == RiskHigh || r == RiskCritical
}

func (r RiskLevel) valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Project is one AI initiative tracked for governance.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Owner          string        `json:"owner"`
	Status         Status        `json:"status"`
	RiskLevel      RiskLevel     `json:"riskLevel"`
	TasksTotal     int           `json:"tasksTotal"`
	TasksCompleted int           `json:"tasksCompleted"`
	ModelsTotal    int           `json:"modelsTotal"`
	ModelsVerified int           `json:"modelsVerified"`
	Investment     pricing.Money `json:"investment"`
	ExpectedReturn pricing.Money `json:"expectedReturn"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// CompletionRate is the share of completed tasks as a percentage.
func (p Project) CompletionRate() float64 {
	return percent(float64(p.TasksCompleted), float64(p.TasksTotal))
}

// VerificationRate is the share of verified models as a percentage.
func (p Project) VerificationRate() float64 {
	return percent(float64(p.ModelsVerified), float64(p.ModelsTotal))
}

// ROI is the expected return on investment as a percentage.
func (p Project) ROI() float64 {
	return percent(float64(p.ExpectedReturn-p.Investment), float64(p.Investment))
}

// percent returns part/whole×100 rounded to one decimal, or 0 when whole is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round1(part / whole * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type seedFile struct {
	Projects []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Owner  string `yaml:"owner"`
		Status string `yaml:"status"`
		Risk   string `yaml:"risk"`
		Tasks  struct {
			Total     int `yaml:"total"`
			Completed int `yaml:"completed"`
		} `yaml:"tasks"`
		Models struct {
			Total    int `yaml:"total"`
			Verified int `yaml:"verified"`
		} `yaml:"models"`
		Investment     string    `yaml:"investment"`
		ExpectedReturn string    `yaml:"expectedReturn"`
		UpdatedAt      time.Time `yaml:"updatedAt"`
	} `yaml:"projects"`
}

// LoadDefault parses the embedded project portfolio.
func LoadDefault() ([]Project, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// Load parses and validates a project portfolio from YAML.
func Load(r io.Reader) ([]Project, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Projects))
	out := make([]Project, 0, len(doc.Projects))
	for i, raw := range doc.Projects {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, fmt.Errorf("project %d: id required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("project %s: duplicate id", id)
		}
		seen[id] = struct{}{}
		status, err := ParseStatus(raw.Status)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", id, err)
		}
		risk := RiskLevel(strings.ToLower(strings.TrimSpace(raw.Risk)))
		if !risk.valid() {
			return nil, fmt.Errorf("project %s: unknown risk level %q", id, raw.Risk)
		}
		if raw.Tasks.Completed < 0 || raw.Tasks.Completed > raw.Tasks.Total {
			return nil, fmt.Errorf("project %s: completed tasks out of range", id)
		}
		if raw.Models.Verified < 0 || raw.Models.Verified > raw.Models.Total {
			return nil, fmt.Errorf("project %s: verified models out of range", id)
		}
		investment, err := pricing.Parse(raw.Investment)
		if err != nil {
			return nil, fmt.Errorf("project %s: investment: %w", id, err)
		}
		expected, err := pricing.Parse(raw.ExpectedReturn)
		if err != nil {
			return nil, fmt.Errorf("project %s: expected return: %w", id, err)
		}
		out = append(out, Project{
			ID:             id,
			Name:           raw.Name,
			Owner:          raw.Owner,
			Status:         status,
			RiskLevel:      risk,
			TasksTotal:     raw.Tasks.Total,
			TasksCompleted: raw.Tasks.Completed,
			ModelsTotal:    raw.Models.Total,
			ModelsVerified: raw.Models.Verified,
			Investment:     investment,
			ExpectedReturn: expected,
			UpdatedAt:      raw.UpdatedAt.UTC(),
		})
	}
	return out, nil
}
