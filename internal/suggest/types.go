package suggest

import (
	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

// VideoCount is the number of videos a suggestion must contain.
const VideoCount = 9

type MoodRequest struct {
	TimeOfDay        mood.TimeOfDay  `json:"timeOfDay"`
	PastMoods        []mood.Mood     `json:"pastMoods"`
	PastContentTypes []mood.Category `json:"pastContentTypes"`
}

type MoodSuggestion struct {
	SuggestedMood mood.Mood `json:"suggestedMood"`
	Confidence    float64   `json:"confidence"`
}

type Video struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	YoutubeID   string `json:"youtubeId"`
}

type InsightsRequest struct {
	// WeeklyData is a JSON document describing the last week of activity.
	WeeklyData        string `json:"weeklyData"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

type Insights struct {
	Summary                     string   `json:"summary"`
	Insights                    []string `json:"insights"`
	RecommendationAccuracyScore *float64 `json:"recommendationAccuracyScore,omitempty"`
}

// wire types for the messages endpoint

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiResponse struct {
	Content    []apiContentBlock `json:"content"`
	StopReason string            `json:"stop_reason"`
	Usage      apiUsage          `json:"usage"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
