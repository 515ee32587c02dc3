package game

import (
	"fmt"

	"github.com/tolelom/arcadechain/core"
)

// Quest paths, chosen at stage 0.
const (
	pathEasy   uint8 = 1 // riddle
	pathMedium uint8 = 2 // combat
	pathHard   uint8 = 3 // location
)

const bossHealth = 50

var questPaths = map[uint8]struct {
	successPercent uint64
	damagePerPower uint64
	bonusPercent   uint64
}{
	pathEasy:   {80, 10, 0},
	pathMedium: {60, 12, 25},
	pathHard:   {40, 25, 50},
}

// resolveQuest advances one stage per move. Stage 0 picks the path, stage 1
// is the path's challenge, stage 2 is the boss fight with a drawn power in
// [1, 10]. The move value is ignored at stage 2.
func resolveQuest(r *round, mv core.Move) error {
	q := r.sess.Data.Quest
	if q == nil {
		q = &core.QuestState{}
		r.sess.Data.Quest = q
	}
	switch q.Stage {
	case 0:
		if err := checkRange(mv.Value, uint64(pathEasy), uint64(pathHard)); err != nil {
			return err
		}
		q.Path = uint8(mv.Value)
		roll, err := r.draw("quest_path", 0, 99)
		if err != nil {
			return err
		}
		if roll >= questPaths[q.Path].successPercent {
			r.result(false)
			return nil
		}
		q.Stage = 1
	case 1:
		ok, err := questChallenge(r, q.Path, mv.Value)
		if err != nil {
			return err
		}
		if !ok {
			r.result(false)
			return nil
		}
		q.Stage = 2
	case 2:
		power, err := r.draw("quest_power", 1, 10)
		if err != nil {
			return err
		}
		path := questPaths[q.Path]
		if power*path.damagePerPower < bossHealth {
			r.result(false)
			return nil
		}
		if path.bonusPercent > 0 {
			bonus, err := core.Percent(r.sess.PotentialReward, path.bonusPercent)
			if err != nil {
				return err
			}
			if r.sess.PotentialReward, err = core.AddAmounts(r.sess.PotentialReward, bonus); err != nil {
				return err
			}
		}
		q.Stage = 3
		r.result(true)
	default:
		return fmt.Errorf("%w: quest already finished", core.ErrStateConflict)
	}
	return nil
}

func questChallenge(r *round, path uint8, guess uint64) (bool, error) {
	switch path {
	case pathEasy:
		if err := checkRange(guess, 1, 3); err != nil {
			return false, err
		}
		answer, err := r.draw("riddle", 1, 3)
		return guess == answer, err
	case pathMedium:
		if err := checkRange(guess, rock, scissors); err != nil {
			return false, err
		}
		enemy, err := r.draw("combat", rock, scissors)
		return rpsOutcome(guess, enemy) >= 0, err
	case pathHard:
		if err := checkRange(guess, 1, 5); err != nil {
			return false, err
		}
		spot, err := r.draw("location", 1, 5)
		return guess == spot, err
	}
	return false, fmt.Errorf("%w: unknown quest path %d", core.ErrValidation, path)
}
