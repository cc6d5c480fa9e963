package snakes

func NewState(greeting string) State {
	return State{
		User:      StartSquare,
		Computer:  StartSquare,
		Active:    PlayerUser,
		DiceValue: 1,
		Log:       []string{greeting},
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
