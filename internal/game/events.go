package game

// Event names are the external contract other components rely on.
type Event string

const (
	EventGameCreated                   Event = "GameCreated"
	EventPlayerJoined                  Event = "PlayerJoined"
	EventPlayerLeft                    Event = "PlayerLeft"
	EventGameStateChanged              Event = "GameStateChanged"
	EventGameStarted                   Event = "GameStarted"
	EventGameEnded                     Event = "GameEnded"
	EventPlayerWon                     Event = "PlayerWon"
	EventPlayerUno                     Event = "PlayerUno"
	EventPlayerBlocked                 Event = "PlayerBlocked"
	EventPlayerBuyCards                Event = "PlayerBuyCards"
	EventPlayerGotAwayFromKeyboard     Event = "PlayerGotAwayFromKeyboard"
	EventGameRoundRemainingTimeChanged Event = "GameRoundRemainingTimeChanged"
)

// sessionUpdateEvents is the fixed set of events that additionally
// trigger the two process-wide side notifications (history consolidation
// and session-list refresh). Keep this an explicit enumeration.
var sessionUpdateEvents = map[Event]bool{
	EventGameCreated:  true,
	EventGameStarted:  true,
	EventGameEnded:    true,
	EventPlayerJoined: true,
	EventPlayerLeft:   true,
}
