// Package content serves the static content catalog shown next to mood
// suggestions.
package content

import (
	"fmt"
	"strings"

	"github.com/DoyleJ11/moodplay-backend/internal/mood"
)

// MaxPerCategory caps a category lookup.
const MaxPerCategory = 3

type Item struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    mood.Category `json:"category"`
}

var catalog = numbered([]Item{
	{Title: "Deep Focus Music for Studying", Description: "Enhance your concentration with these ambient tracks.", Category: mood.Study},
	{Title: "Library Sounds for Reading", Description: "The calming sounds of a library to help you read.", Category: mood.Study},
	{Title: "Rise and Grind", Description: "Get pumped up with this playlist of motivational anthems.", Category: mood.Motivation},
	{Title: "Unstoppable: A Motivational Speech", Description: "Listen to this speech to unlock your full potential.", Category: mood.Motivation},
	{Title: "Chill Lo-fi Beats", Description: "Relax and unwind with these smooth lo-fi hip hop beats.", Category: mood.Music},
	{Title: "Indie Pop Hits", Description: "Discover your new favorite indie pop tracks.", Category: mood.Music},
	{Title: "10-Minute Guided Meditation", Description: "A short meditation to clear your mind and reduce stress.", Category: mood.Meditation},
	{Title: "Zen Garden: Sounds of Nature", Description: "Peaceful nature sounds for deep relaxation.", Category: mood.Meditation},
	{Title: "Funny Animal Videos Compilation", Description: "A collection of hilarious animal clips to brighten your day.", Category: mood.Entertainment},
	{Title: "Top Gaming Moments of the Week", Description: "Watch the most epic gaming highlights and fails.", Category: mood.Entertainment},
})

// numbered assigns ids as "<category>-<position>", counting across the whole
// list from 1.
func numbered(items []Item) []Item {
	for i := range items {
		items[i].ID = fmt.Sprintf("%s-%d", strings.ToLower(string(items[i].Category)), i+1)
	}
	return items
}

// All returns a copy of the catalog.
func All() []Item {
	out := make([]Item, len(catalog))
	copy(out, catalog)
	return out
}

// ForCategory returns up to MaxPerCategory items. The category is matched
// case-insensitively; an empty or unknown category yields an empty list.
func ForCategory(category string) []Item {
	out := make([]Item, 0, MaxPerCategory)
	c, err := mood.ParseCategory(category)
	if err != nil {
		return out
	}
	for _, it := range catalog {
		if it.Category != c {
			continue
		}
		out = append(out, it)
		if len(out) == MaxPerCategory {
			break
		}
	}
	return out
}
