package suggest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

// Thresholds for surfacing a mood suggestion.
const (
	MinInteractions = 3
	RecentMoods     = 5
	MinConfidence   = 0.5
)

const systemPrompt = "You are the recommendation engine of a mood tracking app. " +
	"Reply with a single JSON object and nothing else."

// Worth reports whether a mood suggestion is confident enough to show.
func (s MoodSuggestion) Worth() bool {
	return s.Confidence > MinConfidence
}

func (c *Client) SuggestMood(ctx context.Context, req MoodRequest) (MoodSuggestion, error) {
	var b strings.Builder
	b.WriteString("Based on the user's usage patterns, suggest a mood.\n")
	fmt.Fprintf(&b, "Time of Day: %s\n", req.TimeOfDay)
	fmt.Fprintf(&b, "Past Moods: %s\n", join(req.PastMoods))
	fmt.Fprintf(&b, "Past Content Types: %s\n", join(req.PastContentTypes))
	b.WriteString("Consider the time of day, past moods, and past content types to suggest the most likely mood. ")
	b.WriteString(`Answer as {"suggestedMood": one of "Focus", "Relax", "Bored", "Sad", "confidence": a number from 0 to 1}.`)

	var out MoodSuggestion
	err := c.ask(ctx, "mood", systemPrompt, b.String(), &out, func() error {
		m, err := mood.Parse(string(out.SuggestedMood))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
		out.SuggestedMood = m
		if math.IsNaN(out.Confidence) || out.Confidence < 0 || out.Confidence > 1 {
			return fmt.Errorf("%w: confidence %v out of range", ErrInvalidOutput, out.Confidence)
		}
		return nil
	})
	if err != nil {
		return MoodSuggestion{}, err
	}
	return out, nil
}

func (c *Client) SuggestVideos(ctx context.Context, m mood.Mood) ([]Video, error) {
	var b strings.Builder
	b.WriteString("Recommend YouTube videos to a user based on their mood.\n")
	if m == mood.Sad {
		b.WriteString("The mood is 'Sad', so suggest uplifting or happy music videos.\n")
	}
	fmt.Fprintf(&b, "Based on the user's mood of '%s', suggest exactly %d YouTube videos that could help improve their mood. ", m, VideoCount)
	b.WriteString("For each video give a title, a short description and a plausible YouTube video ID. Vary the suggestions between calls. ")
	b.WriteString(`Answer as {"videos": [{"title": "...", "description": "...", "youtubeId": "..."}]}.`)

	var out struct {
		Videos []Video `json:"videos"`
	}
	err := c.ask(ctx, "videos", systemPrompt, b.String(), &out, func() error {
		if len(out.Videos) != VideoCount {
			return fmt.Errorf("%w: got %d videos, want %d", ErrInvalidOutput, len(out.Videos), VideoCount)
		}
		for i, v := range out.Videos {
			if strings.TrimSpace(v.Title) == "" || strings.TrimSpace(v.YoutubeID) == "" {
				return fmt.Errorf("%w: video %d missing title or id", ErrInvalidOutput, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Videos, nil
}

func (c *Client) Insights(ctx context.Context, req InsightsRequest) (Insights, error) {
	var b strings.Builder
	b.WriteString("Analyze the following weekly user data:\n")
	b.WriteString(req.WeeklyData)
	b.WriteString("\n")
	if req.AdditionalContext != "" {
		fmt.Fprintf(&b, "Additional Context: %s\n", req.AdditionalContext)
	}
	b.WriteString("Summarize the user's most selected moods, most consumed content types and peak productivity times. ")
	b.WriteString("Provide key insights and, if possible, a recommendation accuracy score. ")
	b.WriteString(`Answer as {"summary": "...", "insights": ["..."], "recommendationAccuracyScore": optional number}.`)

	var out Insights
	err := c.ask(ctx, "insights", systemPrompt, b.String(), &out, func() error {
		if strings.TrimSpace(out.Summary) == "" {
			return fmt.Errorf("%w: empty summary", ErrInvalidOutput)
		}
		if out.Insights == nil {
			out.Insights = []string{}
		}
		if s := out.RecommendationAccuracyScore; s != nil && (math.IsNaN(*s) || *s < 0) {
			return fmt.Errorf("%w: negative accuracy score", ErrInvalidOutput)
		}
		return nil
	})
	if err != nil {
		return Insights{}, err
	}
	return out, nil
}

func join[T ~string](xs []T) string {
	if len(xs) == 0 {
		return "none"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = string(x)
	}
	return strings.Join(parts, ", ")
}
