package entity

import "time"

// AppliedAction registro de idempotencia: la acción con este token ya se confirmó en el almacén.
type AppliedAction struct {
	Token     string
	ActionID  string
	Type      ActionType
	AppliedAt time.Time
}
