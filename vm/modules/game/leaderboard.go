package game

import (
	"sort"

	"github.com/tolelom/arcadechain/core"
)

// UpdateLeaderboard records score for player on board, keeping at most size
// entries sorted by descending score with one (best) entry per player.
// It reports whether the board changed.
func UpdateLeaderboard(board *core.Leaderboard, size int, entry core.LeaderboardEntry) bool {
	if size <= 0 {
		return false
	}
	changed := false
	found := false
	for i := range board.Entries {
		if board.Entries[i].Player != entry.Player {
			continue
		}
		found = true
		if entry.Score > board.Entries[i].Score {
			board.Entries[i] = entry
			changed = true
		}
		break
	}
	if !found {
		switch {
		case len(board.Entries) < size:
			board.Entries = append(board.Entries, entry)
			changed = true
		case entry.Score > board.Entries[len(board.Entries)-1].Score:
			board.Entries[len(board.Entries)-1] = entry
			changed = true
		}
	}
	// Earlier entries win ties.
	sort.SliceStable(board.Entries, func(i, j int) bool {
		a, b := board.Entries[i], board.Entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Timestamp < b.Timestamp
	})
	if len(board.Entries) > size {
		board.Entries = board.Entries[:size]
		changed = true
	}
	return changed
}
