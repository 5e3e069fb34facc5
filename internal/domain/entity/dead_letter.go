package entity

import "time"

// DeadLetter acción retirada de la cola por un error permanente, conservada para revisión.
type DeadLetter struct {
	Action   QueuedAction `json:"action"`
	Reason   string       `json:"reason"`
	FailedAt time.Time    `json:"failedAt"`
}
