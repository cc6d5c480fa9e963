package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

// fakeAPI answers every messages call with the given text.
func fakeAPI(t *testing.T, status int, text string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req apiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 1)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(apiResponse{Content: []apiContentBlock{{Type: "text", Text: text}}})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(url string) Config {
	return Config{
		Enabled:         true,
		APIKey:          "test-key",
		BaseURL:         url,
		Model:           "test-model",
		MaxTokens:       256,
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}
}

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) observe(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, op+":"+outcome)
}

func videosJSON(n int) string {
	var vs []Video
	for i := 0; i < n; i++ {
		vs = append(vs, Video{Title: "t", Description: "d", YoutubeID: "abc123"})
	}
	raw, _ := json.Marshal(map[string]any{"videos": vs})
	return string(raw)
}

func TestSuggestMood_ParsesFencedReply(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, "```json\n{\"suggestedMood\":\"focus\",\"confidence\":0.8}\n```")
	rec := &recorder{}
	c := NewClient(testConfig(srv.URL), nil, rec.observe)

	got, err := c.SuggestMood(context.Background(), MoodRequest{
		TimeOfDay: mood.Morning,
		PastMoods: []mood.Mood{mood.Focus, mood.Focus, mood.Relax},
	})
	require.NoError(t, err)
	assert.Equal(t, mood.Focus, got.SuggestedMood)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.True(t, got.Worth())
	assert.Equal(t, []string{"mood:ok"}, rec.outcomes)
}

func TestSuggestMood_RejectsBadOutput(t *testing.T) {
	cases := map[string]string{
		"unknown mood":     `{"suggestedMood":"Angry","confidence":0.9}`,
		"confidence > 1":   `{"suggestedMood":"Sad","confidence":1.5}`,
		"negative":         `{"suggestedMood":"Sad","confidence":-0.1}`,
		"not json":         `I think you are sad`,
		"truncated object": `{"suggestedMood":"Sad",`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := fakeAPI(t, http.StatusOK, reply)
			c := NewClient(testConfig(srv.URL), nil, nil)
			_, err := c.SuggestMood(context.Background(), MoodRequest{TimeOfDay: mood.Night})
			assert.ErrorIs(t, err, ErrInvalidOutput)
		})
	}
}

func TestWorth_ThresholdIsExclusive(t *testing.T) {
	assert.False(t, MoodSuggestion{SuggestedMood: mood.Sad, Confidence: 0.5}.Worth())
	assert.True(t, MoodSuggestion{SuggestedMood: mood.Sad, Confidence: 0.51}.Worth())
}

func TestSuggestVideos_RequiresExactlyNine(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, videosJSON(9))
	c := NewClient(testConfig(srv.URL), nil, nil)
	vids, err := c.SuggestVideos(context.Background(), mood.Sad)
	require.NoError(t, err)
	assert.Len(t, vids, VideoCount)

	for _, n := range []int{0, 8, 10} {
		srv, _ := fakeAPI(t, http.StatusOK, videosJSON(n))
		c := NewClient(testConfig(srv.URL), nil, nil)
		_, err := c.SuggestVideos(context.Background(), mood.Focus)
		assert.ErrorIs(t, err, ErrInvalidOutput, "n=%d", n)
	}
}

func TestInsights(t *testing.T) {
	srv, _ := fakeAPI(t, http.StatusOK, `{"summary":"Mostly focused mornings.","insights":["Focus peaks at 9"],"recommendationAccuracyScore":0.7}`)
	c := NewClient(testConfig(srv.URL), nil, nil)
	got, err := c.Insights(context.Background(), InsightsRequest{WeeklyData: `[]`, AdditionalContext: "exam week"})
	require.NoError(t, err)
	assert.Equal(t, "Mostly focused mornings.", got.Summary)
	assert.Equal(t, []string{"Focus peaks at 9"}, got.Insights)
	require.NotNil(t, got.RecommendationAccuracyScore)
	assert.InDelta(t, 0.7, *got.RecommendationAccuracyScore, 1e-9)

	srv, _ = fakeAPI(t, http.StatusOK, `{"insights":[]}`)
	c = NewClient(testConfig(srv.URL), nil, nil)
	_, err = c.Insights(context.Background(), InsightsRequest{WeeklyData: `[]`})
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestDisabled_MakesNoCalls(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusOK, videosJSON(9))
	cfg := testConfig(srv.URL)
	cfg.Enabled = false
	rec := &recorder{}
	c := NewClient(cfg, nil, rec.observe)

	_, err := c.SuggestVideos(context.Background(), mood.Relax)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, calls.Load())
	assert.Equal(t, []string{"videos:disabled"}, rec.outcomes)

	cfg.Enabled = true
	cfg.APIKey = ""
	_, err = NewClient(cfg, nil, nil).SuggestVideos(context.Background(), mood.Relax)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestUpstreamErrors_TripBreaker(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusServiceUnavailable, "")
	c := NewClient(testConfig(srv.URL), nil, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.SuggestVideos(ctx, mood.Bored)
		require.ErrorIs(t, err, ErrUpstream)
		assert.True(t, strings.Contains(err.Error(), "busy"))
	}
	_, err := c.SuggestVideos(ctx, mood.Bored)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRateLimit(t *testing.T) {
	srv, calls := fakeAPI(t, http.StatusOK, videosJSON(9))
	cfg := testConfig(srv.URL)
	cfg.RatePerMinute = 1
	cfg.Burst = 1
	c := NewClient(cfg, nil, nil)

	_, err := c.SuggestVideos(context.Background(), mood.Focus)
	require.NoError(t, err)
	_, err = c.SuggestVideos(context.Background(), mood.Focus)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "canceled", outcome(context.Canceled))
	assert.Equal(t, "invalid_output", outcome(ErrInvalidOutput))
	assert.Equal(t, "upstream_error", outcome(ErrUpstream))
}
