// Package types names the websocket message types exchanged with game
// clients.
package types

// Client -> Server
// roll:  {}                 snakes, user's turn only
// place: index: 0..8        tic-tac-toe square
// flip:  card_id: number    memory card
// reset: {}                 any game; cancels pending timers
const (
	ClientRoll  = "roll"
	ClientPlace = "place"
	ClientFlip  = "flip"
	ClientReset = "reset"
)

// Server -> Client
// StateSnapshot:
//   version: number
//   kind: "xo" | "snakes" | "memory"
//   state: game specific
//   outcome: {finished: bool, winner?: "user" | "computer" | "draw"}
//
// Error: the snapshot above plus error: string, sent only to the client
// whose message failed.
const (
	ServerStateSnapshot = "StateSnapshot"
	ServerError         = "Error"
)
