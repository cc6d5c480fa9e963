package httpapi

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/DoyleJ11/moodplay-backend/internal/content"
	"github.com/DoyleJ11/moodplay-backend/internal/games"
	"github.com/DoyleJ11/moodplay-backend/internal/hub"
	"github.com/DoyleJ11/moodplay-backend/internal/interactions"
	"github.com/DoyleJ11/moodplay-backend/internal/metrics"
	"github.com/DoyleJ11/moodplay-backend/internal/mood"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
	"github.com/DoyleJ11/moodplay-backend/internal/suggest"
	"github.com/DoyleJ11/moodplay-backend/internal/types"
)

const maxBody = 64 << 10

// Suggester is the remote suggestion service as the handlers see it.
type Suggester interface {
	SuggestMood(ctx context.Context, req suggest.MoodRequest) (suggest.MoodSuggestion, error)
	SuggestVideos(ctx context.Context, m mood.Mood) ([]suggest.Video, error)
	Insights(ctx context.Context, req suggest.InsightsRequest) (suggest.Insights, error)
}

type Deps struct {
	Hub          *hub.Hub
	Interactions *interactions.Log
	Suggester    Suggester
	Timings      games.Timings
	Metrics      *metrics.Metrics
	Logger       *zap.Logger

	CORSOrigins []string
	// RateLimit is requests per minute per IP; 0 disables limiting.
	RateLimit int

	// Now defaults to time.Now.
	Now func() time.Time

	validate *validator.Validate
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateGameRequest
		if !d.decode(w, r, &req, false) {
			return
		}
		kind, err := games.ParseKind(req.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			if d.Hub.Get(c) == nil {
				code = c
				break
			}
			d.Logger.Debug("collision on code, regenerating", zap.String("code", c))
		}

		g, err := games.New(kind, d.Timings, nil)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		reply := make(chan *session.Session, 1)
		d.Hub.Inbox() <- hub.CreateSession{Code: code, Game: g, Reply: reply}
		if <-reply == nil {
			writeError(w, http.StatusInternalServerError, "failed to create game")
			return
		}
		if d.Metrics != nil {
			d.Metrics.GameStarted(string(kind))
		}

		writeJSON(w, http.StatusCreated, types.CreateGameResponse{Code: code, Kind: kind})
	}
}

func GetGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		s := d.Hub.Get(code)
		if s == nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		reply := make(chan session.View, 1)
		if !s.Send(session.GetState{Reply: reply}) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		var v session.View
		select {
		case v = <-reply:
		case <-s.Done():
			writeError(w, http.StatusNotFound, "game not found")
			return
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, types.GameView{
			Code:       code,
			Version:    v.Version,
			Kind:       v.Kind,
			State:      v.State,
			Outcome:    v.Outcome,
			Clients:    v.NumClients,
			TimerArmed: v.TimerArmed,
		})
	}
}

func DeleteGame(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if d.Hub.Get(code) == nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		d.Hub.Inbox() <- hub.RemoveSession{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

type moodOption struct {
	Mood     mood.Mood `json:"mood"`
	Activity string    `json:"activity"`
}

func ListMoods(w http.ResponseWriter, r *http.Request) {
	out := make([]moodOption, 0, len(mood.Moods))
	for _, m := range mood.Moods {
		out = append(out, moodOption{Mood: m, Activity: mood.Activity[m]})
	}
	writeJSON(w, http.StatusOK, out)
}

type moodResponse struct {
	Interaction interactions.Interaction `json:"interaction"`
	Activity    string                   `json:"activity"`
	Videos      []suggest.Video          `json:"videos"`
	Content     []content.Item           `json:"content"`
}

// SelectMood records the pick and returns what to show for it. Videos are
// empty when the suggestion service has nothing.
func SelectMood(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MoodRequest
		if !d.decode(w, r, &req, false) {
			return
		}
		m, err := mood.Parse(req.Mood)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var category mood.Category
		items := []content.Item{}
		if req.ContentCategory != "" {
			if category, err = mood.ParseCategory(req.ContentCategory); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			items = content.ForCategory(string(category))
		}

		now := d.now()
		rec := d.Interactions.Add(r.Context(), interactions.Interaction{
			Mood:            m,
			TimeOfDay:       mood.TimeOfDayAt(now),
			ContentCategory: category,
			Timestamp:       now.UTC(),
		})
		if d.Metrics != nil {
			d.Metrics.InteractionRecorded(string(m))
		}

		videos, err := d.Suggester.SuggestVideos(r.Context(), m)
		if err != nil {
			videos = []suggest.Video{}
		}

		writeJSON(w, http.StatusOK, moodResponse{
			Interaction: rec,
			Activity:    mood.Activity[m],
			Videos:      videos,
			Content:     items,
		})
	}
}

func ListInteractions(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Interactions.All())
	}
}

func AddInteraction(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.InteractionRequest
		if !d.decode(w, r, &req, false) {
			return
		}
		rec, err := d.interactionFrom(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rec = d.Interactions.Add(r.Context(), rec)
		if d.Metrics != nil {
			d.Metrics.InteractionRecorded(string(rec.Mood))
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (d *Deps) interactionFrom(req types.InteractionRequest) (interactions.Interaction, error) {
	m, err := mood.Parse(req.Mood)
	if err != nil {
		return interactions.Interaction{}, err
	}
	now := d.now()
	rec := interactions.Interaction{Mood: m, Timestamp: now.UTC()}
	if req.Timestamp != nil {
		rec.Timestamp = req.Timestamp.UTC()
	}
	if req.TimeOfDay != "" {
		if rec.TimeOfDay, err = mood.ParseTimeOfDay(req.TimeOfDay); err != nil {
			return interactions.Interaction{}, err
		}
	} else {
		rec.TimeOfDay = mood.TimeOfDayAt(rec.Timestamp.In(now.Location()))
	}
	if req.ContentCategory != "" {
		if rec.ContentCategory, err = mood.ParseCategory(req.ContentCategory); err != nil {
			return interactions.Interaction{}, err
		}
	}
	return rec, nil
}

func InteractionStats(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Interactions.Stats())
	}
}

func ListContent(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusOK, content.All())
		return
	}
	writeJSON(w, http.StatusOK, content.ForCategory(category))
}

// SuggestMood answers 204 until enough history exists, and whenever the
// service fails or is not confident.
func SuggestMood(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MoodSuggestionRequest
		if !d.decode(w, r, &req, true) {
			return
		}
		tod := mood.TimeOfDayAt(d.now())
		if req.TimeOfDay != "" {
			var err error
			if tod, err = mood.ParseTimeOfDay(req.TimeOfDay); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		if d.Interactions.Len() < suggest.MinInteractions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s, err := d.Suggester.SuggestMood(r.Context(), suggest.MoodRequest{
			TimeOfDay:        tod,
			PastMoods:        d.Interactions.RecentMoods(suggest.RecentMoods),
			PastContentTypes: d.Interactions.ContentTypes(),
		})
		if err != nil || !s.Worth() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// Insights summarises the whole interaction log. An empty log answers 204
// without asking the service.
func Insights(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.InsightsRequest
		if !d.decode(w, r, &req, true) {
			return
		}
		all := d.Interactions.All()
		if len(all) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		data, err := json.Marshal(all)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode interactions")
			return
		}
		out, err := d.Suggester.Insights(r.Context(), suggest.InsightsRequest{
			WeeklyData:        string(data),
			AdditionalContext: req.AdditionalContext,
		})
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// decode reads a JSON body into v and validates it. It writes the 400 itself
// and reports whether the handler should continue.
func (d *Deps) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		err = nil
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad json: %v", err))
		return false
	}
	if err := d.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
