package entity

import "time"

// SequenceCounter contador por (prefijo, mes). ID = "<prefix>_<YYMM>".
type SequenceCounter struct {
	ID        string
	Count     int
	UpdatedAt time.Time
}
