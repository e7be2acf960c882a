package report

import (
	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/session"
)

// ExtractOptions controls which participants and events an Extractor emits.
// The two report variants differ only in these switches.
type ExtractOptions struct {
	// ExcludeNames lists screen names that are never extracted, such as a
	// recording bot joined to every room.
	ExcludeNames []string

	// ExcludeObservers drops users whose role is "observer" from speak and
	// disconnect extraction.
	ExcludeObservers bool

	// EmitSentinels appends one zero-length sentinel interval per eligible
	// user so downstream views can report a speak count of zero, distinct
	// from the user not appearing at all.
	EmitSentinels bool
}

// Extractor walks parsed rooms and emits one event stream per kind.
// Emission preserves source record order; sorting is the aggregator's job.
type Extractor struct {
	opts   ExtractOptions
	logger logging.Logger
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ExtractOptions, logger logging.Logger) *Extractor {
	return &Extractor{opts: opts, logger: logger}
}

// SpeakIntervals extracts the speak intervals of one room. Users without an
// id cannot be attributed and are skipped entirely. Negative block lengths
// (clock skew in the export) are clamped to zero and flagged.
func (e *Extractor) SpeakIntervals(room *session.Room) []SpeakInterval {
	roomName := room.Name()
	var intervals []SpeakInterval

	for i := range room.UserData {
		user := &room.UserData[i]
		if !e.eligible(user) {
			continue
		}

		for _, block := range user.SpeakBlocks {
			length := block.FinishTime - block.SpeakTime
			if length < 0 {
				e.logger.Warn("negative speak interval, clamping to zero",
					logging.Err(dlerrors.NewDurationError("", roomName, "speak block finishes before it starts")),
					logging.F("uid", user.ID),
					logging.F("length_ms", length))
				length = 0
			}
			intervals = append(intervals, SpeakInterval{
				Room:        roomName,
				UID:         user.ID,
				Speaker:     user.ScreenName,
				Start:       block.SpeakTime,
				End:         block.FinishTime,
				RequestTime: block.RequestTime,
				Length:      length,
			})
		}

		if e.opts.EmitSentinels {
			intervals = append(intervals, SpeakInterval{
				Room:    roomName,
				UID:     user.ID,
				Speaker: user.ScreenName,
			})
		}
	}

	return intervals
}

// DisconnectIntervals extracts the disconnect intervals of one room, under
// the same eligibility rules as speak extraction.
func (e *Extractor) DisconnectIntervals(room *session.Room) []DisconnectInterval {
	roomName := room.Name()
	var intervals []DisconnectInterval

	for i := range room.UserData {
		user := &room.UserData[i]
		if !e.eligible(user) {
			continue
		}

		for _, block := range user.DisconnectedBlocks {
			if block.ConnectedTime < block.DisconnectedTime {
				e.logger.Warn("negative disconnect interval, clamping to zero",
					logging.F("room", roomName),
					logging.F("uid", user.ID))
			}
			intervals = append(intervals, DisconnectInterval{
				Room:           roomName,
				UID:            user.ID,
				Name:           user.ScreenName,
				DisconnectedAt: block.DisconnectedTime,
				ReconnectedAt:  block.ConnectedTime,
			})
		}
	}

	return intervals
}

// AbuseFlags extracts the abusive-language flags of one room.
func (e *Extractor) AbuseFlags(room *session.Room) []AbuseFlag {
	roomName := room.Name()
	var flags []AbuseFlag

	for _, event := range room.TranscriptData {
		if event.Type == session.EventAbusiveLanguage {
			flags = append(flags, AbuseFlag{Room: roomName, At: event.T})
		}
	}

	return flags
}

// eligible applies the per-user inclusion rules shared by speak and
// disconnect extraction.
func (e *Extractor) eligible(user *session.UserRecord) bool {
	if user.ID == "" {
		return false
	}
	if e.opts.ExcludeObservers && user.Role == "observer" {
		return false
	}
	for _, name := range e.opts.ExcludeNames {
		if user.ScreenName == name {
			return false
		}
	}
	return true
}
