package entity

// WaitlistStats is a read-only projection over a tenant's waitlist.
type WaitlistStats struct {
	Waiting  int32 `db:"waiting_count"`
	Offered  int32 `db:"offered_count"`
	Accepted int32 `db:"accepted_count"`
	// EnrolledInWindow counts entries converted within the trailing stats window.
	EnrolledInWindow int32 `db:"enrolled_count"`
}

// Active is the current live waitlist population.
func (ws *WaitlistStats) Active() int32 {
	return ws.Waiting + ws.Offered + ws.Accepted
}

// InstrumentCount is the per-instrument waiting/offered breakdown row.
type InstrumentCount struct {
	InstrumentId   int    `db:"instrument_id"`
	InstrumentName string `db:"instrument_name"`
	Waiting        int32  `db:"waiting_count"`
	Offered        int32  `db:"offered_count"`
	Total          int32  `db:"total_count"`
}
