// Package mood holds the vocabulary shared by interactions, content and
// suggestions: moods, times of day and content categories.
package mood

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownMood = errors.New("unknown mood")
var ErrUnknownTimeOfDay = errors.New("unknown time of day")
var ErrUnknownCategory = errors.New("unknown content category")

type Mood string

const (
	Focus Mood = "Focus"
	Relax Mood = "Relax"
	Bored Mood = "Bored"
	Sad   Mood = "Sad"
)

var Moods = []Mood{Focus, Relax, Bored, Sad}

type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

var TimesOfDay = []TimeOfDay{Morning, Afternoon, Evening, Night}

type Category string

const (
	Study         Category = "Study"
	Motivation    Category = "Motivation"
	Music         Category = "Music"
	Meditation    Category = "Meditation"
	Entertainment Category = "Entertainment"
)

var Categories = []Category{Study, Motivation, Music, Meditation, Entertainment}

// Activity is what the app offers next to the videos for a mood.
var Activity = map[Mood]string{
	Focus: "todo-list",
	Relax: "breathing",
	Bored: "games",
	Sad:   "uplifting-music",
}

// normalize builds its own Caser; a Caser holds state and is not safe to
// share between goroutines.
func normalize(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Parse accepts any casing, e.g. "focus" or " FOCUS ".
func Parse(s string) (Mood, error) {
	m := Mood(normalize(s))
	for _, known := range Moods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, s)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t := TimeOfDay(normalize(s))
	for _, known := range TimesOfDay {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeOfDay, s)
}

func ParseCategory(s string) (Category, error) {
	c := Category(normalize(s))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// TimeOfDayAt buckets the local hour: morning from 05:00, afternoon from
// 12:00, evening from 17:00, night from 21:00.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}
