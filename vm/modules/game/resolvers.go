package game

import (
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/random"
	"github.com/tolelom/arcadechain/vm"
)

// round is one submit_move invocation against a pending session.
type round struct {
	ctx    *vm.Context
	sess   *core.Session
	params *core.Params
}

// draw returns a value in [lo, hi] seeded by the session id and tag.
func (r *round) draw(tag string, lo, hi uint64) (uint64, error) {
	return r.ctx.DrawRange(random.Tagged(r.sess.ID, tag), lo, hi)
}

// setReward rescales the potential reward to pct percent of the net bet.
func (r *round) setReward(pct uint64) error {
	v, err := core.MulDiv(100, r.sess.BetNet, pct)
	if err != nil {
		return err
	}
	r.sess.PotentialReward = v
	return nil
}

func (r *round) result(won bool) {
	if won {
		r.sess.Result = core.ResultWin
	} else {
		r.sess.Result = core.ResultLoss
	}
}

type resolver func(r *round, mv core.Move) error

var resolvers = map[core.GameTypeID]resolver{
	core.GameDiceRoll:          guessGame(1, 6, equal),
	core.GameCoinFlip:          guessGame(0, 1, equal),
	core.GameRockPaperScissors: resolveRPS,
	core.GameNumberGuess:       guessGame(1, 10, equal),
	core.GameCardDraw:          resolveCardDraw,
	core.GameLuckyLottery:      guessGame(1, 100, equal),
	core.GameSlotMachine:       resolveSlots,
	core.GameRandomTreasure:    resolveTreasure,
	core.GameBattleArena:       resolveBattle,
	core.GameQuestChallenge:    resolveQuest,
}

func checkRange(v, lo, hi uint64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: move value %d outside [%d, %d]", core.ErrValidation, v, lo, hi)
	}
	return nil
}

func equal(guess, drawn uint64) bool  { return guess == drawn }
func higher(guess, drawn uint64) bool { return guess > drawn }

// guessGame builds a single-draw resolver comparing the move value with a
// draw over [lo, hi].
func guessGame(lo, hi uint64, wins func(guess, drawn uint64) bool) resolver {
	return func(r *round, mv core.Move) error {
		if err := checkRange(mv.Value, lo, hi); err != nil {
			return err
		}
		drawn, err := r.draw("guess", lo, hi)
		if err != nil {
			return err
		}
		r.result(wins(mv.Value, drawn))
		return nil
	}
}

// cardDeck is the number of card ranks.
const cardDeck = 13

// cardOdds scales a card-draw reward so every guess has the same expected
// return. The registered payout is the reward at even odds; a guess g wins
// with probability (g-1)/13.
func cardOdds(reward, guess uint64) (uint64, error) {
	if guess <= 1 {
		return reward, nil
	}
	return core.MulDiv(cardDeck, reward, 2*(guess-1))
}

func resolveCardDraw(r *round, mv core.Move) error {
	if err := guessGame(1, cardDeck, higher)(r, mv); err != nil {
		return err
	}
	v, err := cardOdds(r.sess.PotentialReward, mv.Value)
	if err != nil {
		return err
	}
	r.sess.PotentialReward = v
	return nil
}

// Rock-paper-scissors choices.
const (
	rock uint64 = iota
	paper
	scissors
)

// rpsOutcome returns 1 if a beats b, 0 on a tie and -1 if b beats a.
func rpsOutcome(a, b uint64) int {
	switch (a + 3 - b) % 3 {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return -1
	}
}

func resolveRPS(r *round, mv core.Move) error {
	if err := checkRange(mv.Value, rock, scissors); err != nil {
		return err
	}
	house, err := r.draw("rps", rock, scissors)
	if err != nil {
		return err
	}
	switch rpsOutcome(mv.Value, house) {
	case 0:
		r.sess.Result = core.ResultDraw
	case 1:
		r.sess.Result = core.ResultWin
	default:
		r.sess.Result = core.ResultLoss
	}
	return nil
}

// Slot payouts in percent of the net bet.
const (
	slotJackpot = 1500 // three sevens
	slotTriple  = 1000
	slotPair    = 150
)

func resolveSlots(r *round, _ core.Move) error {
	var reels [3]uint64
	for i := range reels {
		v, err := r.draw(fmt.Sprintf("reel%d", i+1), 0, 9)
		if err != nil {
			return err
		}
		reels[i] = v
	}
	a, b, c := reels[0], reels[1], reels[2]
	switch {
	case a == b && b == c && a == 7:
		r.sess.Result = core.ResultWin
		return r.setReward(slotJackpot)
	case a == b && b == c:
		r.sess.Result = core.ResultWin
		return r.setReward(slotTriple)
	case a == b || b == c || a == c:
		r.sess.Result = core.ResultWin
		return r.setReward(slotPair)
	}
	r.sess.Result = core.ResultLoss
	return nil
}

// treasureTiers maps the cumulative draw band over [0, 100) to a payout percent.
var treasureTiers = []struct {
	below  uint64
	payout uint64
}{
	{50, 50},
	{80, 100},
	{95, 150},
	{99, 300},
	{100, 1000},
}

func resolveTreasure(r *round, _ core.Move) error {
	v, err := r.draw("treasure", 0, 99)
	if err != nil {
		return err
	}
	for _, t := range treasureTiers {
		if v < t.below {
			r.sess.Result = core.ResultWin
			return r.setReward(t.payout)
		}
	}
	return fmt.Errorf("treasure draw %d out of range", v)
}
