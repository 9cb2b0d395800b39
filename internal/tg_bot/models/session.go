package models

import "time"

// FlowID names one hard-coded conversation flow.
type FlowID string

// StateID names one step inside a flow. It is only meaningful together with a FlowID.
type StateID string

// Answers is the typed record a flow fills in step by step.
// Each flow has its own closed implementation with optional fields for conditional branches.
type Answers interface {
	// Clone returns a deep copy so a step can be applied without touching the live record.
	Clone() Answers
	// Complete checks that every field the terminal side effect needs is present.
	Complete() error
}

// Option is one selectable choice rendered for a singleChoice step.
type Option struct {
	Label string // Text shown on the button
	Value string // Value delivered back when the button is pressed
}

// Session is the live state of one user's active flow.
type Session struct {
	UserID    int64     // Telegram chat ID of the user
	FlowID    FlowID    // Active flow
	StateID   StateID   // Current step, always a key of the flow's states
	Answers   Answers   // Collected answers
	Options   []Option  // Choices offered by the current step, if any
	CreatedAt time.Time // When the flow was started
	UpdatedAt time.Time // Last accepted input
}

// Clone returns a copy of the session that shares nothing mutable with the original.
func (s *Session) Clone() *Session {
	c := *s
	if s.Answers != nil {
		c.Answers = s.Answers.Clone()
	}
	c.Options = append([]Option(nil), s.Options...)
	return &c
}
