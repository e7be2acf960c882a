package report

import (
	"fmt"
	"sort"
	"strconv"
)

// Sheet names for the per-session report variant.
const (
	SheetSpeakInstances   = "Speak Instances By Group"
	SheetSpeakerTotals    = "Speaker Totals"
	SheetDisconnectedTime = "Disconnected Time By Group"
	SheetAbuseFlags       = "Abuse Flags by Group"
)

// Roles excluded from final rollup output rows.
var excludedRoles = map[string]bool{
	"observer": true,
	"admin":    true,
	"removed":  true,
}

// Table is a named rectangular dataset ready for external serialization.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// FormatMinSec renders a millisecond duration as zero-padded mm:ss,
// truncating sub-second precision. Negative durations render as "00:00";
// minutes may exceed 59.
func FormatMinSec(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d", ms/60000, (ms/1000)%60)
}

// roomColumns is one room's contribution to a wide-by-room table: a block
// of columns with its own row count.
type roomColumns struct {
	columns []string
	rows    [][]string
}

// concat lays room column blocks side by side. Rows are unrelated across
// blocks, so shorter blocks are padded with empty cells.
func concat(name string, blocks []roomColumns) Table {
	table := Table{Name: name}

	height := 0
	for _, block := range blocks {
		table.Columns = append(table.Columns, block.columns...)
		if len(block.rows) > height {
			height = len(block.rows)
		}
	}

	for i := 0; i < height; i++ {
		var row []string
		for _, block := range blocks {
			if i < len(block.rows) {
				row = append(row, block.rows[i]...)
			} else {
				for range block.columns {
					row = append(row, "")
				}
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

// SpeakTimelineTable renders per-room speak timelines as column triplets
// DisplayName_<room>, ParticipantID_<room>, SpeakTime_<room>, concatenated
// side by side.
func SpeakTimelineTable(timelines []RoomTimeline) Table {
	blocks := make([]roomColumns, 0, len(timelines))

	for _, tl := range timelines {
		block := roomColumns{
			columns: []string{
				"DisplayName_" + tl.Room,
				"ParticipantID_" + tl.Room,
				"SpeakTime_" + tl.Room,
			},
		}
		for _, iv := range tl.Intervals {
			block.rows = append(block.rows, []string{iv.Speaker, iv.UID, FormatMinSec(iv.Length)})
		}
		blocks = append(blocks, block)
	}

	return concat(SheetSpeakInstances, blocks)
}

// SpeakerTotalsTable renders per-room speaker totals as column quadruplets
// DisplayName, ParticipantID, TotalSpeakTime, NumSpeaks per room.
func SpeakerTotalsTable(totals []RoomSpeakerTotals) Table {
	blocks := make([]roomColumns, 0, len(totals))

	for _, rt := range totals {
		block := roomColumns{
			columns: []string{
				"DisplayName_" + rt.Room,
				"ParticipantID_" + rt.Room,
				"TotalSpeakTime_" + rt.Room,
				"NumSpeaks_" + rt.Room,
			},
		}
		for _, sp := range rt.Speakers {
			block.rows = append(block.rows, []string{
				sp.Name, sp.UID, FormatMinSec(sp.TotalMs), strconv.Itoa(sp.Count),
			})
		}
		blocks = append(blocks, block)
	}

	return concat(SheetSpeakerTotals, blocks)
}

// DisconnectTable renders per-room disconnected-time totals.
func DisconnectTable(totals []RoomDisconnectTotals) Table {
	blocks := make([]roomColumns, 0, len(totals))

	for _, rt := range totals {
		block := roomColumns{
			columns: []string{
				"DisplayName_" + rt.Room,
				"ParticipantID_" + rt.Room,
				"DisconnectedTime_" + rt.Room,
			},
		}
		for _, dt := range rt.Totals {
			block.rows = append(block.rows, []string{dt.Name, dt.UID, FormatMinSec(dt.TotalMs)})
		}
		blocks = append(blocks, block)
	}

	return concat(SheetDisconnectedTime, blocks)
}

// AbuseFlagsTable renders one row per room with its abuse flag count.
func AbuseFlagsTable(counts []RoomFlagCount) Table {
	table := Table{
		Name:    SheetAbuseFlags,
		Columns: []string{"Room", "Flags"},
	}
	for _, rc := range counts {
		table.Rows = append(table.Rows, []string{rc.Room, strconv.Itoa(rc.Count)})
	}
	return table
}

// RollupLongTable renders the participant×group rollup in long form: one
// row per (participant, room) pair. Observer, admin, and removed roles are
// excluded from output. Duration metrics render as mm:ss; the Rollup keeps
// the millisecond values.
func RollupLongTable(r *Rollup) Table {
	table := Table{
		Name: "long",
		Columns: []string{
			"Uid", "_Name", "Group",
			"YeasMoveOn", "NaysMoveOn", "MoveOnInitiations",
			"QuestionsWritten", "VotesForQuestions",
			"SpeakCount", "SpeakTime",
			"groupDelibTime", "groupSpeakingTime",
		},
	}

	for _, p := range r.Participants() {
		if excludedRoles[p.Role] {
			continue
		}
		for _, room := range p.GroupNames() {
			stats := p.Stats(room)
			group := r.Group(room)
			table.Rows = append(table.Rows, []string{
				p.UID,
				p.Name,
				room,
				strconv.Itoa(stats.NumYeas),
				strconv.Itoa(stats.NumNays),
				strconv.Itoa(stats.NumInitiations),
				strconv.Itoa(stats.QuestionsWritten),
				strconv.Itoa(stats.VotesForQuestions),
				strconv.Itoa(stats.SpeakCount),
				FormatMinSec(stats.SpeakTimeMs),
				FormatMinSec(group.DelibTimeMs()),
				FormatMinSec(group.SpeakingTimeMs),
			})
		}
	}

	return table
}

// RollupWideTable reshapes the long-form rollup into one row per
// participant, pivoting on room. Column order is room-major: rooms sorted
// ascending, metrics sorted ascending within each room, columns named
// <Metric>_<room>. Cells for a (participant, room) pair that never occurred
// are empty.
func RollupWideTable(long Table) Table {
	uidCol, groupCol := -1, -1
	var metricCols []int
	for i, col := range long.Columns {
		switch col {
		case "Uid":
			uidCol = i
		case "Group":
			groupCol = i
		default:
			metricCols = append(metricCols, i)
		}
	}

	type cellKey struct {
		uid    string
		room   string
		metric string
	}

	cells := make(map[cellKey]string)
	var uids []string
	uidSeen := make(map[string]bool)
	var rooms []string
	roomSeen := make(map[string]bool)

	for _, row := range long.Rows {
		uid, room := row[uidCol], row[groupCol]
		if !uidSeen[uid] {
			uidSeen[uid] = true
			uids = append(uids, uid)
		}
		if !roomSeen[room] {
			roomSeen[room] = true
			rooms = append(rooms, room)
		}
		for _, mc := range metricCols {
			cells[cellKey{uid: uid, room: room, metric: long.Columns[mc]}] = row[mc]
		}
	}

	sort.Strings(uids)
	sort.Strings(rooms)

	metrics := make([]string, 0, len(metricCols))
	for _, mc := range metricCols {
		metrics = append(metrics, long.Columns[mc])
	}
	sort.Strings(metrics)

	wide := Table{Name: "wide", Columns: []string{"Uid"}}
	for _, room := range rooms {
		for _, metric := range metrics {
			wide.Columns = append(wide.Columns, metric+"_"+room)
		}
	}

	for _, uid := range uids {
		row := []string{uid}
		for _, room := range rooms {
			for _, metric := range metrics {
				row = append(row, cells[cellKey{uid: uid, room: room, metric: metric}])
			}
		}
		wide.Rows = append(wide.Rows, row)
	}

	return wide
}
