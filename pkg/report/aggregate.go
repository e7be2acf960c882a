package report

import "sort"

// RoomTimeline is one room's speak intervals ordered by start time.
type RoomTimeline struct {
	Room      string
	Intervals []SpeakInterval
}

// SpeakerTotal is one speaker's per-room totals. Count counts only
// intervals with nonzero length, so a speaker present via a sentinel
// interval shows a count of zero rather than disappearing.
type SpeakerTotal struct {
	UID     string
	Name    string
	Count   int
	TotalMs int64
}

// RoomSpeakerTotals is the per-speaker totals of one room, in first-seen
// (uid, name) order.
type RoomSpeakerTotals struct {
	Room     string
	Speakers []SpeakerTotal
}

// DisconnectTotal is one participant's cumulative disconnected time in a room.
type DisconnectTotal struct {
	UID     string
	Name    string
	TotalMs int64
}

// RoomDisconnectTotals is one room's disconnect totals, in first-seen order.
type RoomDisconnectTotals struct {
	Room   string
	Totals []DisconnectTotal
}

// RoomFlagCount is one room's abuse flag count.
type RoomFlagCount struct {
	Room  string
	Count int
}

// speakerKey groups intervals by the (uid, displayName) pair. A uid whose
// display name changes mid-session produces two rows; the rows are not
// silently merged.
type speakerKey struct {
	uid  string
	name string
}

// RoomTimelines partitions speak intervals by room and sorts each room's
// intervals by start time ascending. The sort is stable, so ties keep the
// extractor's emission order. Zero-length sentinel intervals are filtered
// out of this view only.
func RoomTimelines(intervals []SpeakInterval, roomNames []string) []RoomTimeline {
	timelines := make([]RoomTimeline, 0, len(roomNames))

	for _, room := range roomNames {
		var inRoom []SpeakInterval
		for _, iv := range intervals {
			if iv.Room == room && iv.Length > 0 {
				inRoom = append(inRoom, iv)
			}
		}
		sort.SliceStable(inRoom, func(i, j int) bool {
			return inRoom[i].Start < inRoom[j].Start
		})
		timelines = append(timelines, RoomTimeline{Room: room, Intervals: inRoom})
	}

	return timelines
}

// SpeakerTotals computes, per room, each speaker's total speak time and the
// count of nonzero intervals. Speakers appear in first-seen order. Rooms
// with no intervals at all are omitted.
func SpeakerTotals(intervals []SpeakInterval, roomNames []string) []RoomSpeakerTotals {
	var totals []RoomSpeakerTotals

	for _, room := range roomNames {
		sums := make(map[speakerKey]*SpeakerTotal)
		var order []speakerKey

		for _, iv := range intervals {
			if iv.Room != room {
				continue
			}
			key := speakerKey{uid: iv.UID, name: iv.Speaker}
			total, ok := sums[key]
			if !ok {
				total = &SpeakerTotal{UID: iv.UID, Name: iv.Speaker}
				sums[key] = total
				order = append(order, key)
			}
			total.TotalMs += iv.Length
			if iv.Length > 0 {
				total.Count++
			}
		}

		if len(order) == 0 {
			continue
		}

		roomTotals := RoomSpeakerTotals{Room: room}
		for _, key := range order {
			roomTotals.Speakers = append(roomTotals.Speakers, *sums[key])
		}
		totals = append(totals, roomTotals)
	}

	return totals
}

// DisconnectTotals computes, per room, each participant's cumulative
// disconnected time. Rooms and participants without disconnect intervals
// are omitted, not zero-filled.
func DisconnectTotals(intervals []DisconnectInterval, roomNames []string) []RoomDisconnectTotals {
	var totals []RoomDisconnectTotals

	for _, room := range roomNames {
		sums := make(map[speakerKey]*DisconnectTotal)
		var order []speakerKey

		for _, iv := range intervals {
			if iv.Room != room {
				continue
			}
			key := speakerKey{uid: iv.UID, name: iv.Name}
			total, ok := sums[key]
			if !ok {
				total = &DisconnectTotal{UID: iv.UID, Name: iv.Name}
				sums[key] = total
				order = append(order, key)
			}
			total.TotalMs += iv.Duration()
		}

		if len(order) == 0 {
			continue
		}

		roomTotals := RoomDisconnectTotals{Room: room}
		for _, key := range order {
			roomTotals.Totals = append(roomTotals.Totals, *sums[key])
		}
		totals = append(totals, roomTotals)
	}

	return totals
}

// AbuseFlagCounts counts abuse flags per room. Unlike the other contracts,
// every known room appears, zero-filled when it has no flags.
func AbuseFlagCounts(flags []AbuseFlag, roomNames []string) []RoomFlagCount {
	counts := make([]RoomFlagCount, 0, len(roomNames))

	for _, room := range roomNames {
		n := 0
		for _, flag := range flags {
			if flag.Room == room {
				n++
			}
		}
		counts = append(counts, RoomFlagCount{Room: room, Count: n})
	}

	return counts
}
