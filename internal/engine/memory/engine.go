package memory

import (
	"errors"

	"github.com/DoyleJ11/moodplay-backend/internal/engine/dice"
)

var ErrUnknownCard = errors.New("unknown card")
var ErrIllegalFlip = errors.New("illegal flip")
var ErrNothingToHide = errors.New("no mismatched pair pending")
var ErrGameAlreadyCompleted = errors.New("game already completed")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Symbols is the default deck; each one appears twice on a board.
var Symbols = []string{
	"brain", "car", "anchor", "apple", "atom", "award", "axe",
	"baggage-claim", "banana", "beer", "bike", "bomb", "bone", "book-open",
}

type Card struct {
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`
	FaceUp  bool   `json:"face_up"`
	Matched bool   `json:"matched"`
}

type State struct {
	Cards    []Card `json:"cards"`
	Flipped  []int  `json:"flipped"`
	Moves    int    `json:"moves"`
	Checking bool   `json:"checking"` // a mismatched pair is waiting to be hidden
	Over     bool   `json:"over"`
}

// NewBoard lays out every symbol twice in a uniformly random order.
func NewBoard(symbols []string, src dice.Source) []string {
	if src == nil {
		src = dice.Default
	}
	deck := make([]string, 0, 2*len(symbols))
	deck = append(deck, symbols...)
	deck = append(deck, symbols...)
	for i := len(deck) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func NewState(deck []string) State {
	cards := make([]Card, len(deck))
	for i, sym := range deck {
		cards[i] = Card{ID: i, Symbol: sym}
	}
	return State{Cards: cards, Flipped: []int{}}
}

type CommandType string

const (
	CmdFlip         CommandType = "Flip"
	CmdHideMismatch CommandType = "HideMismatch"
	CmdReset        CommandType = "Reset"
)

type Command struct {
	Type   CommandType
	CardID int
	Deck   []string // Reset only
}

type EventType string

const (
	EvtCardFlipped    EventType = "CardFlipped"
	EvtPairMatched    EventType = "PairMatched"
	EvtPairMismatched EventType = "PairMismatched"
	EvtPairHidden     EventType = "PairHidden"
	EvtGameCompleted  EventType = "GameCompleted"
	EvtGameReset      EventType = "GameReset"
)

type Event struct {
	Type    EventType
	CardIDs []int
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	if cmd.Type == CmdReset {
		return []Event{{Type: EvtGameReset}}, NewState(cmd.Deck), nil
	}
	if s.Over {
		return nil, s, ErrGameAlreadyCompleted
	}

	newState := s.clone()

	switch cmd.Type {
	case CmdFlip:
		if cmd.CardID < 0 || cmd.CardID >= len(s.Cards) {
			return nil, s, ErrUnknownCard
		}
		card := s.Cards[cmd.CardID]
		if s.Checking || card.FaceUp || card.Matched || len(s.Flipped) == 2 {
			return nil, s, ErrIllegalFlip
		}

		newState.Cards[cmd.CardID].FaceUp = true
		newState.Flipped = append(newState.Flipped, cmd.CardID)
		events := []Event{{Type: EvtCardFlipped, CardIDs: []int{cmd.CardID}}}

		if len(newState.Flipped) < 2 {
			return events, newState, nil
		}

		newState.Moves++
		first, second := newState.Flipped[0], newState.Flipped[1]
		pair := []int{first, second}

		if newState.Cards[first].Symbol != newState.Cards[second].Symbol {
			newState.Checking = true
			return append(events, Event{Type: EvtPairMismatched, CardIDs: pair}), newState, nil
		}

		newState.Cards[first].Matched = true
		newState.Cards[second].Matched = true
		newState.Flipped = []int{}
		events = append(events, Event{Type: EvtPairMatched, CardIDs: pair})

		if allMatched(newState.Cards) {
			newState.Over = true
			events = append(events, Event{Type: EvtGameCompleted})
		}
		return events, newState, nil

	case CmdHideMismatch:
		if !s.Checking {
			return nil, s, ErrNothingToHide
		}
		for _, id := range newState.Flipped {
			newState.Cards[id].FaceUp = false
		}
		hidden := newState.Flipped
		newState.Flipped = []int{}
		newState.Checking = false
		return []Event{{Type: EvtPairHidden, CardIDs: hidden}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func (s State) clone() State {
	c := s
	c.Cards = append([]Card(nil), s.Cards...)
	c.Flipped = append([]int{}, s.Flipped...)
	return c
}

func allMatched(cards []Card) bool {
	for _, c := range cards {
		if !c.Matched {
			return false
		}
	}
	return len(cards) > 0
}
