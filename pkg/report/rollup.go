package report

import (
	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/session"
)

// GroupStats is the participant×group rollup: everything one participant
// did within one room. All counters accumulate monotonically and are owned
// exclusively by the (participant, room) pair.
type GroupStats struct {
	// NumYeas and NumNays count advance-agenda votes. The platform encodes
	// answer 0 as yea and 1 as nay; the encoding is preserved exactly.
	NumYeas int
	NumNays int

	// NumInitiations counts advance-agenda polls this participant started.
	NumInitiations int

	QuestionsWritten  int
	VotesForQuestions int

	// SpeakCount and SpeakTimeMs cover speak blocks with nonzero length.
	SpeakCount  int
	SpeakTimeMs int64
}

// Participant is one person across all the rooms of a run. Identity is the
// uid; name and role are display attributes from the first record seen.
type Participant struct {
	UID  string
	Name string
	Role string

	groups     map[string]*GroupStats
	groupOrder []string
}

// Stats returns the participant's stats for a room, or nil if the
// participant was never observed there.
func (p *Participant) Stats(room string) *GroupStats {
	return p.groups[room]
}

// GroupNames returns the rooms this participant was observed in,
// in first-seen order.
func (p *Participant) GroupNames() []string {
	return p.groupOrder
}

// ensureStats lazily creates the stats for a (participant, room) pair.
// Re-seeing the pair in a later session file accumulates into the same
// stats rather than resetting them.
func (p *Participant) ensureStats(room string) *GroupStats {
	if stats, ok := p.groups[room]; ok {
		return stats
	}
	stats := &GroupStats{}
	p.groups[room] = stats
	p.groupOrder = append(p.groupOrder, room)
	return stats
}

// Group is a room's run-level summary. StartTime is the first connect
// event, overridden by an explicit "Introductions" moderator marker;
// EndTime is the "Deliberation ends" marker. SpeakingTimeMs accumulates
// every participant's nonzero speak time in the room.
type Group struct {
	Name           string
	StartTime      int64
	EndTime        int64
	SpeakingTimeMs int64
}

// DelibTimeMs returns the room's deliberation window length, clamped at
// zero when the markers are missing or out of order.
func (g *Group) DelibTimeMs() int64 {
	if d := g.EndTime - g.StartTime; d > 0 {
		return d
	}
	return 0
}

// Rollup accumulates the participant×group stats and room summaries across
// session files. Rooms sharing a name across files are treated as the same
// room; participants are keyed by uid across the whole run.
type Rollup struct {
	participants map[string]*Participant
	order        []string

	groups     map[string]*Group
	groupOrder []string

	logger logging.Logger
}

// NewRollup creates an empty rollup.
func NewRollup(logger logging.Logger) *Rollup {
	return &Rollup{
		participants: make(map[string]*Participant),
		groups:       make(map[string]*Group),
		logger:       logger,
	}
}

// Participants returns all participants in first-seen order.
func (r *Rollup) Participants() []*Participant {
	out := make([]*Participant, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.participants[uid])
	}
	return out
}

// Groups returns all rooms in first-seen order.
func (r *Rollup) Groups() []*Group {
	out := make([]*Group, 0, len(r.groupOrder))
	for _, name := range r.groupOrder {
		out = append(out, r.groups[name])
	}
	return out
}

// Group returns the named room's summary, or nil.
func (r *Rollup) Group(name string) *Group {
	return r.groups[name]
}

// AddSession folds one session's rooms into the rollup. Room records
// missing a name or user list are skipped with a warning; events naming an
// unknown participant are skipped individually. Neither aborts the session.
func (r *Rollup) AddSession(name string, rooms []session.Room) {
	log := r.logger.With(logging.F("session", name))

	for i := range rooms {
		room := &rooms[i]

		roomName := room.Name()
		if roomName == "" {
			log.Warn("skipped room with no name",
				logging.Err(dlerrors.NewRoomError(name, "", "room record has no name")))
			continue
		}
		if !room.HasUserData() {
			log.Warn("skipped room because it has no users",
				logging.Err(dlerrors.NewRoomError(name, roomName, "room record has no userData section")))
			continue
		}

		group := r.ensureGroup(roomName)
		r.addUsers(log, group, room)
		r.addTranscript(log, group, room)
		r.addPolls(log, group, room)
	}
}

// addUsers accumulates votes and speak time from the room's roster.
func (r *Rollup) addUsers(log logging.Logger, group *Group, room *session.Room) {
	for i := range room.UserData {
		user := &room.UserData[i]
		if user.ID == "" {
			log.Warn("skipped user record with no id", logging.F("room", group.Name))
			continue
		}

		stats := r.ensureParticipant(user).ensureStats(group.Name)

		for _, answer := range user.AdvanceAgenda {
			switch answer.Answer {
			case 0:
				stats.NumYeas++
			case 1:
				stats.NumNays++
			}
		}

		for _, block := range user.SpeakBlocks {
			length := block.FinishTime - block.SpeakTime
			if length < 0 {
				log.Warn("ignored negative speak interval",
					logging.Err(dlerrors.NewDurationError("", group.Name, "speak block finishes before it starts")),
					logging.F("uid", user.ID))
				continue
			}
			if length > 0 {
				stats.SpeakCount++
				stats.SpeakTimeMs += length
				group.SpeakingTimeMs += length
			}
		}
	}
}

// addTranscript accumulates question activity and the room's deliberation
// window markers from room-scoped transcript events.
func (r *Rollup) addTranscript(log logging.Logger, group *Group, room *session.Room) {
	for _, event := range room.TranscriptData {
		switch event.Type {
		case session.EventSubmitQuestion:
			if stats := r.statsFor(log, group, event.UserID, event.Type); stats != nil {
				stats.QuestionsWritten++
			}

		case session.EventSubmitQuestionRanks:
			if stats := r.statsFor(log, group, event.UserID, event.Type); stats != nil {
				stats.VotesForQuestions++
			}

		case session.EventModerator:
			switch event.Text {
			case session.MarkerIntroductions:
				group.StartTime = event.T
			case session.MarkerDeliberationEnds:
				group.EndTime = event.T
			}

		case session.EventConnect:
			if group.StartTime == 0 {
				group.StartTime = event.T
			}
		}
	}
}

// addPolls attributes advance-agenda initiations to the poll's initiator.
func (r *Rollup) addPolls(log logging.Logger, group *Group, room *session.Room) {
	for _, poll := range room.PollData {
		if poll.Type != session.PollAdvanceAgenda {
			continue
		}
		if stats := r.statsFor(log, group, poll.Data.From, poll.Type); stats != nil {
			stats.NumInitiations++
		}
	}
}

// statsFor resolves an event's participant to their room stats. An event
// naming a participant outside the known set must not be silently
// attributed to nobody; it is logged and that single event is skipped.
func (r *Rollup) statsFor(log logging.Logger, group *Group, uid, eventType string) *GroupStats {
	if uid == "" {
		log.Warn("skipped event with no participant id",
			logging.Err(dlerrors.NewEventError("", group.Name, "event carries no participant id")),
			logging.F("type", eventType))
		return nil
	}
	participant, ok := r.participants[uid]
	if !ok {
		log.Warn("skipped event from unknown participant",
			logging.Err(dlerrors.NewEventError("", group.Name, "event names a participant missing from the roster")),
			logging.F("type", eventType),
			logging.F("uid", uid))
		return nil
	}
	return participant.ensureStats(group.Name)
}

func (r *Rollup) ensureParticipant(user *session.UserRecord) *Participant {
	if p, ok := r.participants[user.ID]; ok {
		return p
	}
	p := &Participant{
		UID:    user.ID,
		Name:   user.ScreenName,
		Role:   user.Role,
		groups: make(map[string]*GroupStats),
	}
	r.participants[user.ID] = p
	r.order = append(r.order, user.ID)
	return p
}

func (r *Rollup) ensureGroup(name string) *Group {
	if g, ok := r.groups[name]; ok {
		return g
	}
	g := &Group{Name: name}
	r.groups[name] = g
	r.groupOrder = append(r.groupOrder, name)
	return g
}
