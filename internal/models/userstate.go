package models

// ConversationState represents the state of a bot conversation with the owner
type ConversationState int

const (
	// Default is the initial state
	Default ConversationState = iota
	// AwaitingEntryName is the state after a bare /save, the next text names the entry
	AwaitingEntryName
	// AwaitingConfirmReset is the state when the owner is confirming a full reset
	AwaitingConfirmReset
)

// UserState represents the state of a bot conversation
type UserState struct {
	State ConversationState
}
