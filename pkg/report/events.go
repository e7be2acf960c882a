// Package report implements the event-extraction and aggregation pipeline
// for deliberation session exports: typed events, per-room and per-speaker
// aggregates, the participant×group rollup, and the tabular report assembly.
package report

// SpeakInterval is one contiguous span during which a participant held the
// floor in a room. All times are epoch milliseconds. A zero-length,
// zero-time interval is the sentinel for "present but spoke zero times".
type SpeakInterval struct {
	Room        string
	UID         string
	Speaker     string
	Start       int64
	End         int64
	RequestTime int64
	Length      int64
}

// DisconnectInterval is one contiguous span during which a participant was
// disconnected from a room.
type DisconnectInterval struct {
	Room           string
	UID            string
	Name           string
	DisconnectedAt int64
	ReconnectedAt  int64
}

// Duration returns the interval's length in milliseconds, clamped at zero.
func (d DisconnectInterval) Duration() int64 {
	if dur := d.ReconnectedAt - d.DisconnectedAt; dur > 0 {
		return dur
	}
	return 0
}

// AbuseFlag marks one detected abusive-language transcript event in a room.
type AbuseFlag struct {
	Room string
	At   int64
}
