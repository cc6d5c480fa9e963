// Package interactions keeps the ordered log of mood selections and
// persists it as one JSON blob in a kv.Store.
package interactions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moodplay-backend/internal/kv"
	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

// StorageKey is the single key the whole log lives under.
const StorageKey = "moodplay:interactions"

type Interaction struct {
	Mood            mood.Mood      `json:"mood"`
	TimeOfDay       mood.TimeOfDay `json:"timeOfDay"`
	ContentCategory mood.Category  `json:"contentCategory,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

type Stats struct {
	Total        int               `json:"total"`
	MoodCounts   map[mood.Mood]int `json:"moodCounts"`
	ContentTypes []mood.Category   `json:"contentTypes"`
}

// Log is safe for concurrent use. Persistence failures are reported to
// OnPersistError and the log carries on in memory.
type Log struct {
	mu      sync.RWMutex
	records []Interaction
	// saveMu orders saves so an older snapshot never lands after a newer one.
	saveMu  sync.Mutex
	store   kv.Store
	logger  *zap.Logger

	OnPersistError func(op string, err error)
}

func New(store kv.Store, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{store: store, logger: logger}
}

// Load replaces the in-memory log with the stored one. A missing key is an
// empty log; any other failure keeps the current records.
func (l *Log) Load(ctx context.Context) {
	raw, err := l.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		l.persistFailed("load", err)
		return
	}
	var recs []Interaction
	if err := json.Unmarshal(raw, &recs); err != nil {
		l.persistFailed("load", fmt.Errorf("decode interactions: %w", err))
		return
	}
	l.mu.Lock()
	l.records = recs
	l.mu.Unlock()
	l.logger.Info("interactions loaded", zap.Int("count", len(recs)))
}

// Add appends a record and saves the whole log.
func (l *Log) Add(ctx context.Context, rec Interaction) Interaction {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.TimeOfDay == "" {
		rec.TimeOfDay = mood.TimeOfDayAt(rec.Timestamp.Local())
	}

	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	l.records = append(l.records, rec)
	raw, err := json.Marshal(l.records)
	l.mu.Unlock()

	if err != nil {
		l.persistFailed("save", fmt.Errorf("encode interactions: %w", err))
		return rec
	}
	if err := l.store.Put(ctx, StorageKey, raw); err != nil {
		l.persistFailed("save", err)
	}
	return rec
}

// Record is Add for the common case of a mood picked right now.
func (l *Log) Record(ctx context.Context, m mood.Mood, category mood.Category) Interaction {
	now := time.Now()
	return l.Add(ctx, Interaction{
		Mood:            m,
		TimeOfDay:       mood.TimeOfDayAt(now),
		ContentCategory: category,
		Timestamp:       now.UTC(),
	})
}

func (l *Log) All() []Interaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Interaction, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// MoodCounts always has an entry for every mood.
func (l *Log) MoodCounts() map[mood.Mood]int {
	counts := make(map[mood.Mood]int, len(mood.Moods))
	for _, m := range mood.Moods {
		counts[m] = 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.records {
		counts[r.Mood]++
	}
	return counts
}

// RecentMoods returns up to n moods, oldest first.
func (l *Log) RecentMoods(n int) []mood.Mood {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return []mood.Mood{}
	}
	start := len(l.records) - n
	if start < 0 {
		start = 0
	}
	out := make([]mood.Mood, 0, len(l.records)-start)
	for _, r := range l.records[start:] {
		out = append(out, r.Mood)
	}
	return out
}

// ContentTypes lists the categories of past records in log order, skipping
// records without one.
func (l *Log) ContentTypes() []mood.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []mood.Category{}
	for _, r := range l.records {
		if r.ContentCategory != "" {
			out = append(out, r.ContentCategory)
		}
	}
	return out
}

// Since returns the records at or after t.
func (l *Log) Since(t time.Time) []Interaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []Interaction{}
	for _, r := range l.records {
		if !r.Timestamp.Before(t) {
			out = append(out, r)
		}
	}
	return out
}

func (l *Log) Stats() Stats {
	return Stats{
		Total:        l.Len(),
		MoodCounts:   l.MoodCounts(),
		ContentTypes: l.ContentTypes(),
	}
}

func (l *Log) persistFailed(op string, err error) {
	l.logger.Warn("interaction log persistence failed", zap.String("op", op), zap.Error(err))
	if l.OnPersistError != nil {
		l.OnPersistError(op, err)
	}
}
