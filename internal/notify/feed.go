package notify

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/aigov-api/internal/obs"
)

//go:embed seed/notifications.yaml
var defaultSeed []byte

// ErrNotFound is returned when a notification does not exist in the viewer's feed.
var ErrNotFound = errors.New("notification not found")

// Kind classifies a notification for display.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindAlert   Kind = "alert"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInfo, KindSuccess, KindWarning, KindAlert:
		return true
	}
	return false
}

// Notification is one entry of a user's feed.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Template seeds every new feed. Age positions the entry in the past
// relative to the moment the feed is first opened.
type Template struct {
	Title   string
	Message string
	Kind    Kind
	Age     time.Duration
	Read    bool
}

type seedFile struct {
	Notifications []struct {
		Title   string `yaml:"title"`
		Message string `yaml:"message"`
		Kind    string `yaml:"kind"`
		Age     string `yaml:"age"`
		Read    bool   `yaml:"read"`
	} `yaml:"notifications"`
}

// LoadDefaultSeed parses the embedded seed templates.
func LoadDefaultSeed() ([]Template, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed parses seed templates from YAML.
func LoadSeed(r io.Reader) ([]Template, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode notification seed: %w", err)
	}
	out := make([]Template, 0, len(doc.Notifications))
	for i, n := range doc.Notifications {
		kind := Kind(strings.ToLower(strings.TrimSpace(n.Kind)))
		if !kind.Valid() {
			return nil, fmt.Errorf("notification seed %d: unknown kind %q", i, n.Kind)
		}
		if strings.TrimSpace(n.Title) == "" {
			return nil, fmt.Errorf("notification seed %d: title required", i)
		}
		var age time.Duration
		if strings.TrimSpace(n.Age) != "" {
			d, err := time.ParseDuration(n.Age)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("notification seed %d: invalid age %q", i, n.Age)
			}
			age = d
		}
		out = append(out, Template{Title: n.Title, Message: n.Message, Kind: kind, Age: age, Read: n.Read})
	}
	return out, nil
}

// Feed keeps per-user notification lists in memory. A user's list is
// materialised from the templates the first time it is touched and holds
// at most Capacity entries, dropping the oldest.
type Feed struct {
	Capacity int
	Now      func() time.Time

	mu        sync.Mutex
	templates []Template
	byUser    map[string][]Notification
}

// NewFeed constructs a Feed seeded with templates.
func NewFeed(templates []Template, capacity int) *Feed {
	if capacity <= 0 {
		capacity = 100
	}
	return &Feed{
		Capacity:  capacity,
		templates: append([]Template(nil), templates...),
		byUser:    make(map[string][]Notification),
	}
}

func (f *Feed) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now().UTC()
}

// entries returns the user's list, seeding it on first access. Callers hold mu.
func (f *Feed) entries(userID string) []Notification {
	list, ok := f.byUser[userID]
	if ok {
		return list
	}
	now := f.now()
	list = make([]Notification, 0, len(f.templates))
	for _, t := range f.templates {
		list = append(list, Notification{
			ID:        uuid.New(),
			Title:     t.Title,
			Message:   t.Message,
			Kind:      t.Kind,
			Read:      t.Read,
			CreatedAt: now.Add(-t.Age),
		})
	}
	sortNewestFirst(list)
	f.byUser[userID] = list
	return list
}

// List returns the user's notifications newest first, optionally only the
// unread ones, together with the unread count.
func (f *Feed) List(userID string, unreadOnly bool) ([]Notification, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.entries(userID)
	out := make([]Notification, 0, len(list))
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		} else if unreadOnly {
			continue
		}
		out = append(out, n)
	}
	return out, unread
}

// Push prepends a new unread notification for the user.
func (f *Feed) Push(userID, title, message string, kind Kind) (Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return Notification{}, errors.New("notify: user id required")
	}
	if !kind.Valid() {
		return Notification{}, fmt.Errorf("notify: unknown kind %q", kind)
	}
	n := Notification{
		ID:        uuid.New(),
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: f.now(),
	}
	f.mu.Lock()
	list := append([]Notification{n}, f.entries(userID)...)
	if len(list) > f.Capacity {
		list = list[:f.Capacity]
	}
	f.byUser[userID] = list
	f.mu.Unlock()
	obs.RecordNotification(string(kind))
	return n, nil
}

// MarkRead flags one notification as read.
func (f *Feed) MarkRead(userID string, id uuid.UUID) (Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.entries(userID)
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return list[i], nil
		}
	}
	return Notification{}, ErrNotFound
}

// MarkAllRead flags every notification as read and returns how many changed.
func (f *Feed) MarkAllRead(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.entries(userID)
	changed := 0
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			changed++
		}
	}
	return changed
}

func sortNewestFirst(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
