package types

import (
	"time"

	"github.com/DoyleJ11/moodplay-backend/internal/session"
)

type ClientMessage struct {
	Type   string `json:"type"` // "roll" | "place" | "flip" | "reset"
	Index  *int   `json:"index,omitempty"`
	CardID *int   `json:"card_id,omitempty"`
}

type ServerMessage struct {
	Type    string           `json:"type"` // "StateSnapshot" | "Error"
	Version int              `json:"version"`
	Kind    session.Kind     `json:"kind,omitempty"`
	State   any              `json:"state,omitempty"`
	Outcome *session.Outcome `json:"outcome,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type CreateGameRequest struct {
	Kind string `json:"kind" validate:"required,oneof=xo snakes memory"`
}

type CreateGameResponse struct {
	Code string       `json:"code"`
	Kind session.Kind `json:"kind"`
}

type GameView struct {
	Code       string          `json:"code"`
	Version    int             `json:"version"`
	Kind       session.Kind    `json:"kind"`
	State      any             `json:"state"`
	Outcome    session.Outcome `json:"outcome"`
	Clients    int             `json:"clients"`
	TimerArmed bool            `json:"timer_armed"`
}

type MoodRequest struct {
	Mood            string `json:"mood" validate:"required,max=32"`
	ContentCategory string `json:"content_category,omitempty" validate:"omitempty,max=32"`
}

type InteractionRequest struct {
	Mood            string     `json:"mood" validate:"required,max=32"`
	TimeOfDay       string     `json:"time_of_day,omitempty" validate:"omitempty,max=32"`
	ContentCategory string     `json:"content_category,omitempty" validate:"omitempty,max=32"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
}

type MoodSuggestionRequest struct {
	TimeOfDay string `json:"time_of_day,omitempty" validate:"omitempty,max=32"`
}

type InsightsRequest struct {
	AdditionalContext string `json:"additional_context,omitempty" validate:"max=2000"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
