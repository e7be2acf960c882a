package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// UnmarshalJSON decodes a room while remembering whether the userData
// section was present in the export at all.
func (r *Room) UnmarshalJSON(data []byte) error {
	var aux struct {
		RoomData       RoomData             `json:"roomData"`
		UserData       json.RawMessage      `json:"userData"`
		TranscriptData []TranscriptEvent    `json:"transcriptData"`
		PollData       map[string]PollEvent `json:"pollData"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.RoomData = aux.RoomData
	r.TranscriptData = aux.TranscriptData
	r.PollData = aux.PollData

	if aux.UserData == nil || bytes.Equal(bytes.TrimSpace(aux.UserData), []byte("null")) {
		r.userDataRaw = nil
		r.UserData = nil
		return nil
	}

	r.userDataRaw = aux.UserData
	return json.Unmarshal(aux.UserData, &r.UserData)
}

// ParseSession parses one session export. Both schema variants are accepted:
// a top-level array of rooms, and a single object with the same room fields.
func ParseSession(r io.Reader) ([]Room, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parsing session: empty document")
	}

	if trimmed[0] == '[' {
		var rooms []Room
		if err := json.Unmarshal(trimmed, &rooms); err != nil {
			return nil, fmt.Errorf("parsing session: %w", err)
		}
		return rooms, nil
	}

	var room Room
	if err := json.Unmarshal(trimmed, &room); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return []Room{room}, nil
}

// RoomNames returns the names of the given rooms in export order,
// skipping unnamed rooms.
func RoomNames(rooms []Room) []string {
	names := make([]string, 0, len(rooms))
	for i := range rooms {
		if name := rooms[i].Name(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
