package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/delib-cli/pkg/session"
)

func TestRollup_VoteEncoding(t *testing.T) {
	// Interleaved answers: 0 is always yea, 1 is always nay.
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{
			ID: "u1", ScreenName: "Alice", Role: "participant",
			AdvanceAgenda: []session.AgendaAnswer{
				{Answer: 0}, {Answer: 1}, {Answer: 0}, {Answer: 1}, {Answer: 0},
			},
		}},
	}})

	stats := r.Participants()[0].Stats("Blue")
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.NumYeas)
	assert.Equal(t, 2, stats.NumNays)
}

func TestRollup_SpeakAccumulation(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{
			{
				ID: "u1", ScreenName: "Alice", Role: "participant",
				SpeakBlocks: []session.SpeakBlock{
					{SpeakTime: 1000, FinishTime: 1500},
					{SpeakTime: 3000, FinishTime: 3000}, // zero length, not counted
					{SpeakTime: 6000, FinishTime: 7500},
				},
			},
			{
				ID: "u2", ScreenName: "Bob", Role: "participant",
				SpeakBlocks: []session.SpeakBlock{{SpeakTime: 9000, FinishTime: 9100}},
			},
		},
	}})

	alice := r.Participants()[0].Stats("Blue")
	assert.Equal(t, 2, alice.SpeakCount)
	assert.Equal(t, int64(2000), alice.SpeakTimeMs)

	group := r.Group("Blue")
	assert.Equal(t, int64(2100), group.SpeakingTimeMs)
}

func TestRollup_NegativeSpeakBlockIgnored(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{
			ID: "u1", ScreenName: "Alice", Role: "participant",
			SpeakBlocks: []session.SpeakBlock{{SpeakTime: 5000, FinishTime: 4000}},
		}},
	}})

	stats := r.Participants()[0].Stats("Blue")
	assert.Equal(t, 0, stats.SpeakCount)
	assert.Equal(t, int64(0), stats.SpeakTimeMs)
	assert.Equal(t, int64(0), r.Group("Blue").SpeakingTimeMs)
}

func TestRollup_QuestionEvents(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		TranscriptData: []session.TranscriptEvent{
			{Type: session.EventSubmitQuestion, T: 100, UserID: "u1"},
			{Type: session.EventSubmitQuestion, T: 200, UserID: "u1"},
			{Type: session.EventSubmitQuestionRanks, T: 300, UserID: "u1"},
			{Type: session.EventSubmitQuestion, T: 400, UserID: "u404"}, // unknown, skipped
		},
	}})

	stats := r.Participants()[0].Stats("Blue")
	assert.Equal(t, 2, stats.QuestionsWritten)
	assert.Equal(t, 1, stats.VotesForQuestions)
	assert.Len(t, r.Participants(), 1)
}

func TestRollup_PollInitiations(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		PollData: map[string]session.PollEvent{
			"p1": {Type: session.PollAdvanceAgenda, Data: session.PollData{From: "u1"}},
			"p2": {Type: session.PollAdvanceAgenda, Data: session.PollData{From: "u1"}},
			"p3": {Type: "otherPoll", Data: session.PollData{From: "u1"}},
			"p4": {Type: session.PollAdvanceAgenda, Data: session.PollData{From: "u404"}},
		},
	}})

	stats := r.Participants()[0].Stats("Blue")
	assert.Equal(t, 2, stats.NumInitiations)
}

func TestRollup_RoomWindowMarkers(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		TranscriptData: []session.TranscriptEvent{
			{Type: session.EventConnect, T: 1000, UserID: "u1"},
			{Type: session.EventConnect, T: 2000, UserID: "u1"}, // first connect wins
			{Type: session.EventModerator, T: 5000, Text: session.MarkerIntroductions},
			{Type: session.EventModerator, T: 905000, Text: session.MarkerDeliberationEnds},
		},
	}})

	group := r.Group("Blue")
	// The explicit Introductions marker overrides the first connect.
	assert.Equal(t, int64(5000), group.StartTime)
	assert.Equal(t, int64(905000), group.EndTime)
	assert.Equal(t, int64(900000), group.DelibTimeMs())
}

func TestRollup_ConnectOnlyStart(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{{
		RoomData: session.RoomData{Name: "Blue"},
		UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		TranscriptData: []session.TranscriptEvent{
			{Type: session.EventConnect, T: 1234, UserID: "u1"},
		},
	}})

	assert.Equal(t, int64(1234), r.Group("Blue").StartTime)
	assert.Equal(t, int64(0), r.Group("Blue").DelibTimeMs())
}

func TestRollup_SkipsRoomWithoutUsers(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{
		{RoomData: session.RoomData{Name: "NoUsers"}},
		{
			RoomData: session.RoomData{Name: "Blue"},
			UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		},
	})

	assert.Nil(t, r.Group("NoUsers"))
	assert.NotNil(t, r.Group("Blue"))
}

func TestRollup_MergesRoomsByNameAcrossSessions(t *testing.T) {
	r := NewRollup(testLogger())

	blueWith := func(blocks ...session.SpeakBlock) []session.Room {
		return []session.Room{{
			RoomData: session.RoomData{Name: "Blue"},
			UserData: []session.UserRecord{{
				ID: "u1", ScreenName: "Alice", Role: "participant", SpeakBlocks: blocks,
			}},
		}}
	}

	r.AddSession("s1", blueWith(session.SpeakBlock{SpeakTime: 0, FinishTime: 500}))
	r.AddSession("s2", blueWith(session.SpeakBlock{SpeakTime: 0, FinishTime: 700}))

	// Re-seeing the (participant, room) pair accumulates, never resets.
	require.Len(t, r.Participants(), 1)
	stats := r.Participants()[0].Stats("Blue")
	assert.Equal(t, 2, stats.SpeakCount)
	assert.Equal(t, int64(1200), stats.SpeakTimeMs)
	assert.Equal(t, int64(1200), r.Group("Blue").SpeakingTimeMs)
}

func TestRollup_ParticipantAcrossRooms(t *testing.T) {
	r := NewRollup(testLogger())
	r.AddSession("s1", []session.Room{
		{
			RoomData: session.RoomData{Name: "Blue"},
			UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		},
		{
			RoomData: session.RoomData{Name: "Green"},
			UserData: []session.UserRecord{{ID: "u1", ScreenName: "Alice", Role: "participant"}},
		},
	})

	p := r.Participants()[0]
	assert.Equal(t, []string{"Blue", "Green"}, p.GroupNames())
	assert.NotSame(t, p.Stats("Blue"), p.Stats("Green"))
}
