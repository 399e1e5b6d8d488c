// Package models defines the data structures for utterance events.
package models

// UtterancePartial represents an in-progress utterance: the text
// accumulated so far within the current turn.
type UtterancePartial struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// UtteranceFinal represents a completed utterance, emitted once per turn
// boundary.
type UtteranceFinal struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	Timestamp  int64  `json:"timestamp"`
	Text       string `json:"text"`
	DurationMs int64  `json:"durationMs"`
}
