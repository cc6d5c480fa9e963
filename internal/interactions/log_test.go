package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moodplay-backend/internal/kv"
	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Put(context.Context, string, []byte) error   { return errBroken }
func (brokenStore) Close() error                                 { return nil }

// stallingStore holds its first Put until release is closed.
type stallingStore struct {
	*kv.Memory
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingStore) Put(ctx context.Context, key string, value []byte) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.Memory.Put(ctx, key, value)
}

func at(hour int) time.Time {
	return time.Date(2026, 10, 19, hour, 0, 0, 0, time.UTC)
}

func TestAddThenLoad_RoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	l := New(store, nil)
	l.Add(ctx, Interaction{Mood: mood.Focus, TimeOfDay: mood.Morning, ContentCategory: mood.Study, Timestamp: at(9)})
	l.Add(ctx, Interaction{Mood: mood.Sad, TimeOfDay: mood.Night, Timestamp: at(23)})

	fresh := New(store, nil)
	fresh.Load(ctx)
	assert.Equal(t, l.All(), fresh.All())
	require.Equal(t, 2, fresh.Len())
	assert.Equal(t, mood.Study, fresh.All()[0].ContentCategory)
}

func TestLoad_MissingKeyIsEmpty(t *testing.T) {
	l := New(kv.NewMemory(), nil)
	l.Load(context.Background())
	assert.Equal(t, 0, l.Len())
}

func TestLoad_CorruptBlobKeepsLogEmpty(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Put(context.Background(), StorageKey, []byte("{not json")))

	var ops []string
	l := New(store, nil)
	l.OnPersistError = func(op string, _ error) { ops = append(ops, op) }
	l.Load(context.Background())

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, []string{"load"}, ops)
}

func TestFailingStore_LogContinuesInMemory(t *testing.T) {
	ctx := context.Background()
	var failures []error
	l := New(brokenStore{}, nil)
	l.OnPersistError = func(_ string, err error) { failures = append(failures, err) }

	l.Load(ctx)
	l.Add(ctx, Interaction{Mood: mood.Relax, Timestamp: at(14)})
	l.Add(ctx, Interaction{Mood: mood.Bored, Timestamp: at(15)})

	assert.Equal(t, 2, l.Len())
	require.Len(t, failures, 3)
	for _, err := range failures {
		assert.ErrorIs(t, err, errBroken)
	}
}

func TestAdd_FillsTimestampAndTimeOfDay(t *testing.T) {
	l := New(kv.NewMemory(), nil)
	rec := l.Add(context.Background(), Interaction{Mood: mood.Focus})
	assert.False(t, rec.Timestamp.IsZero())
	assert.Contains(t, mood.TimesOfDay, rec.TimeOfDay)

	rec = l.Record(context.Background(), mood.Bored, mood.Entertainment)
	assert.Equal(t, mood.Bored, rec.Mood)
	assert.Equal(t, mood.Entertainment, rec.ContentCategory)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	l := New(kv.NewMemory(), nil)
	seq := []struct {
		m mood.Mood
		c mood.Category
	}{
		{mood.Focus, mood.Study},
		{mood.Focus, ""},
		{mood.Sad, mood.Music},
		{mood.Relax, mood.Meditation},
		{mood.Bored, ""},
		{mood.Focus, mood.Motivation},
	}
	for i, s := range seq {
		l.Add(ctx, Interaction{Mood: s.m, ContentCategory: s.c, Timestamp: at(8 + i)})
	}

	assert.Equal(t, map[mood.Mood]int{mood.Focus: 3, mood.Relax: 1, mood.Bored: 1, mood.Sad: 1}, l.MoodCounts())
	assert.Equal(t, []mood.Mood{mood.Sad, mood.Relax, mood.Bored, mood.Focus}, l.RecentMoods(4))
	assert.Len(t, l.RecentMoods(50), 6)
	assert.Empty(t, l.RecentMoods(0))
	assert.Equal(t, []mood.Category{mood.Study, mood.Music, mood.Meditation, mood.Motivation}, l.ContentTypes())
	assert.Len(t, l.Since(at(11)), 3)

	st := l.Stats()
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 3, st.MoodCounts[mood.Focus])
}

func TestMoodCounts_EmptyLogHasAllMoods(t *testing.T) {
	counts := New(kv.NewMemory(), nil).MoodCounts()
	assert.Len(t, counts, 4)
	for _, m := range mood.Moods {
		assert.Equal(t, 0, counts[m])
	}
}

func TestConcurrentAdds_NewestSaveWins(t *testing.T) {
	ctx := context.Background()
	store := &stallingStore{Memory: kv.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	l := New(store, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l.Add(ctx, Interaction{Mood: mood.Focus, Timestamp: at(9)})
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		l.Add(ctx, Interaction{Mood: mood.Sad, Timestamp: at(10)})
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	fresh := New(store, nil)
	fresh.Load(ctx)
	require.Equal(t, l.Len(), fresh.Len())
	assert.Equal(t, 2, fresh.Len())
	assert.Equal(t, []mood.Mood{mood.Focus, mood.Sad}, fresh.RecentMoods(2))
}
