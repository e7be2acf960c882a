// Package session provides parsing and discovery for deliberation session exports.
//
// A session export is a JSON document produced by the deliberation platform:
// either a top-level array of rooms, or a single room object with the same
// fields. Each room carries a roster of user records with per-user event
// sub-lists plus room-scoped transcript and poll events.
package session

import "encoding/json"

// Transcript event types the pipeline cares about. The platform emits more;
// unrecognized types pass through untouched.
const (
	EventAbusiveLanguage     = "abusiveLanguage"
	EventSubmitQuestion      = "submitQuestion"
	EventSubmitQuestionRanks = "submitQuestionRanks"
	EventModerator           = "moderator"
	EventConnect             = "connect"
)

// Moderator marker texts that delimit a room's deliberation window.
const (
	MarkerIntroductions    = "Introductions"
	MarkerDeliberationEnds = "Deliberation ends"
)

// PollAdvanceAgenda is the poll type for a motion to move the deliberation on.
const PollAdvanceAgenda = "advanceAgenda"

// RoomData carries the room's identifying attributes.
type RoomData struct {
	Name string `json:"name"`
}

// SpeakBlock is one contiguous span during which a user held the floor.
// All times are epoch milliseconds.
type SpeakBlock struct {
	SpeakTime   int64 `json:"speakTime"`
	FinishTime  int64 `json:"finishTime"`
	RequestTime int64 `json:"requestTime"`
}

// DisconnectedBlock is one contiguous span during which a user was
// disconnected from the room. All times are epoch milliseconds.
type DisconnectedBlock struct {
	DisconnectedTime int64 `json:"disconnectedTime"`
	ConnectedTime    int64 `json:"connectedTime"`
}

// AgendaAnswer is one advance-agenda vote cast by a user.
// The platform encodes 0 as yea and 1 as nay.
type AgendaAnswer struct {
	Answer int `json:"answer"`
}

// UserRecord is one participant's record within a room.
type UserRecord struct {
	ID                 string              `json:"id"`
	ScreenName         string              `json:"screenName"`
	Role               string              `json:"role"`
	SpeakBlocks        []SpeakBlock        `json:"speakBlocks"`
	DisconnectedBlocks []DisconnectedBlock `json:"disconnectedBlocks"`
	AdvanceAgenda      []AgendaAnswer      `json:"advanceAgenda"`
}

// TranscriptEvent is a room-scoped, time-stamped, typed event.
// T is epoch milliseconds. UserID and Text are optional per event type.
type TranscriptEvent struct {
	Type   string `json:"type"`
	T      int64  `json:"t"`
	UserID string `json:"userId,omitempty"`
	Text   string `json:"text,omitempty"`
}

// PollEvent is a room-scoped event keyed by poll id in the export.
type PollEvent struct {
	Type string   `json:"type"`
	Data PollData `json:"data"`
}

// PollData identifies the participant a poll event originated from.
type PollData struct {
	From string `json:"from"`
}

// Room is one deliberation sub-session within a session export.
type Room struct {
	RoomData       RoomData             `json:"roomData"`
	UserData       []UserRecord         `json:"userData"`
	TranscriptData []TranscriptEvent    `json:"transcriptData"`
	PollData       map[string]PollEvent `json:"pollData"`

	// userDataRaw distinguishes "userData absent" from "userData empty".
	userDataRaw json.RawMessage
}

// Name returns the room's name.
func (r *Room) Name() string {
	return r.RoomData.Name
}

// HasUserData reports whether the room carries a userData section at all.
// A missing section is a recoverable malformed-input condition; an empty
// roster is valid.
func (r *Room) HasUserData() bool {
	return r.userDataRaw != nil || r.UserData != nil
}
