// Package game runs bet-escrowed mini-game sessions: create, move-by-move
// resolution against the randomness source, reward claim and expiry.
package game

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/vm/modules/ledger"
	"github.com/tolelom/arcadechain/vm/modules/treasury"
)

func init() {
	vm.Register(core.TxCreateSession, vm.NonReentrant(handleCreateSession))
	vm.Register(core.TxSubmitMove, vm.NonReentrant(handleSubmitMove))
	vm.Register(core.TxClaimGameReward, vm.NonReentrant(handleClaimReward))
	vm.Register(core.TxExpireSession, vm.NonReentrant(handleExpireSession))
}

// sessionID derives a unique id from the caller, game, bet, time and the
// global session nonce.
func sessionID(caller string, gt core.GameTypeID, bet uint64, now int64, nonce uint64) string {
	var buf [25]byte
	buf[0] = byte(gt)
	binary.BigEndian.PutUint64(buf[1:], bet)
	binary.BigEndian.PutUint64(buf[9:], uint64(now))
	binary.BigEndian.PutUint64(buf[17:], nonce)
	return crypto.Keccak256Hex([]byte(caller), buf[:])
}

func loadSession(ctx *vm.Context, id string) (*core.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session_id required", core.ErrValidation)
	}
	sess, err := ctx.State.GetSession(id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %q", core.ErrNotFound, id)
		}
		return nil, err
	}
	return sess, nil
}

func handleCreateSession(ctx *vm.Context, payload json.RawMessage) error {
	var p core.CreateSessionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	if !p.GameType.Valid() {
		return fmt.Errorf("%w: unknown game type %d", core.ErrValidation, p.GameType)
	}
	gt, err := ctx.State.GetGameType(p.GameType)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%w: game type %d not registered", core.ErrValidation, p.GameType)
		}
		return err
	}
	if !gt.Active {
		return fmt.Errorf("%w: game %s is inactive", core.ErrValidation, gt.Name)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	if p.BetAmount < params.MinBet || p.BetAmount > params.MaxBet {
		return fmt.Errorf("%w: bet %d outside [%d, %d]", core.ErrValidation, p.BetAmount, params.MinBet, params.MaxBet)
	}
	bal, err := ledger.New(ctx).BalanceOf(ctx.Caller)
	if err != nil {
		return err
	}
	if bal < p.BetAmount {
		return fmt.Errorf("%w: have %d tokens need %d", core.ErrInsufficientFunds, bal, p.BetAmount)
	}

	fee, err := core.Percent(p.BetAmount, params.GameFeePercent)
	if err != nil {
		return err
	}
	net := p.BetAmount - fee
	if _, err := treasury.Collect(ctx, core.AssetToken, ctx.Caller, ctx.Caller, fee); err != nil {
		return err
	}
	if err := ledger.New(ctx).Transfer(ctx.Caller, core.EscrowAddress, net); err != nil {
		return err
	}
	reward, err := core.MulDiv(100, net, gt.PayoutMultiplier)
	if err != nil {
		return err
	}

	g, err := ctx.State.GetGlobals()
	if err != nil {
		return err
	}
	g.SessionNonce++
	if err := ctx.State.SetGlobals(g); err != nil {
		return err
	}
	now := ctx.Now()
	sess := &core.Session{
		ID:              sessionID(ctx.Caller, p.GameType, p.BetAmount, now, g.SessionNonce),
		GameType:        p.GameType,
		Player:          ctx.Caller,
		BetAmount:       p.BetAmount,
		BetNet:          net,
		PotentialReward: reward,
		CreatedAt:       now,
		Result:          core.ResultPending,
		Moves:           []core.Move{},
	}
	if err := ctx.State.SetSession(sess); err != nil {
		return err
	}

	stats, err := ctx.State.GetGameStats(p.GameType)
	if err != nil {
		return err
	}
	stats.GamesPlayed++
	if err := ctx.State.SetGameStats(stats); err != nil {
		return err
	}

	ctx.Emit(events.EventSessionOpen, map[string]any{
		"session_id": sess.ID, "game_type": uint8(p.GameType), "player": ctx.Caller,
		"bet": p.BetAmount, "fee": fee, "potential_reward": reward,
	})
	return nil
}

func handleSubmitMove(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SubmitMovePayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	sess, err := loadSession(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if sess.Player != ctx.Caller {
		return fmt.Errorf("%w: session %s belongs to %s", core.ErrUnauthorized, sess.ID, sess.Player)
	}
	if sess.Result.Terminal() {
		return fmt.Errorf("%w: session %s is %s", core.ErrStateConflict, sess.ID, sess.Result)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	now := ctx.Now()
	if now >= sess.CreatedAt+params.SessionTimeout {
		return fmt.Errorf("%w: session %s timed out", core.ErrTiming, sess.ID)
	}

	mv := core.Move{Type: p.MoveType, Value: p.MoveValue, Timestamp: now}
	sess.Moves = append(sess.Moves, mv)
	resolve, ok := resolvers[sess.GameType]
	if !ok {
		return fmt.Errorf("%w: no resolver for game type %d", core.ErrValidation, sess.GameType)
	}
	r := &round{ctx: ctx, sess: sess, params: params}
	if err := resolve(r, mv); err != nil {
		return err
	}
	ctx.Emit(events.EventMoveSubmitted, map[string]any{
		"session_id": sess.ID, "move_type": p.MoveType, "move_value": p.MoveValue,
	})
	if sess.Result.Terminal() {
		if err := finish(ctx, params, sess); err != nil {
			return err
		}
	}
	return ctx.State.SetSession(sess)
}

// finish settles the escrowed bet for a freshly resolved session and records
// wins on the leaderboard.
func finish(ctx *vm.Context, params *core.Params, sess *core.Session) error {
	sess.ResolvedAt = ctx.Now()
	l := ledger.New(ctx)
	switch sess.Result {
	case core.ResultLoss:
		if err := l.Transfer(core.EscrowAddress, core.TreasuryAddress, sess.BetNet); err != nil {
			return err
		}
	case core.ResultDraw:
		if err := l.Transfer(core.EscrowAddress, sess.Player, sess.BetNet); err != nil {
			return err
		}
	case core.ResultWin:
		stats, err := ctx.State.GetGameStats(sess.GameType)
		if err != nil {
			return err
		}
		stats.Wins++
		if err := ctx.State.SetGameStats(stats); err != nil {
			return err
		}
		board, err := ctx.State.GetLeaderboard(sess.GameType)
		if err != nil {
			return err
		}
		entry := core.LeaderboardEntry{Player: sess.Player, Score: sess.PotentialReward, Timestamp: sess.ResolvedAt}
		if UpdateLeaderboard(board, params.LeaderboardSize, entry) {
			if err := ctx.State.SetLeaderboard(board); err != nil {
				return err
			}
			ctx.Emit(events.EventLeaderboard, map[string]any{
				"game_type": uint8(sess.GameType), "player": sess.Player, "score": sess.PotentialReward,
			})
		}
	}
	ctx.Emit(events.EventSessionResolved, map[string]any{
		"session_id": sess.ID, "player": sess.Player, "result": string(sess.Result), "reward": sess.PotentialReward,
	})
	return nil
}

func handleClaimReward(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SessionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	sess, err := loadSession(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if sess.Player != ctx.Caller {
		return fmt.Errorf("%w: session %s belongs to %s", core.ErrUnauthorized, sess.ID, sess.Player)
	}
	if sess.Result != core.ResultWin {
		return fmt.Errorf("%w: session %s is %s, not won", core.ErrStateConflict, sess.ID, sess.Result)
	}
	if sess.RewardClaimed {
		return fmt.Errorf("%w: reward for session %s already claimed", core.ErrStateConflict, sess.ID)
	}
	sess.RewardClaimed = true
	if err := ctx.State.SetSession(sess); err != nil {
		return err
	}

	// The escrowed net bet covers the reward first; the excess is minted and
	// any unspent part of the bet goes to the treasury.
	l := ledger.New(ctx)
	reward := sess.PotentialReward
	fromEscrow := min(reward, sess.BetNet)
	if err := l.Transfer(core.EscrowAddress, sess.Player, fromEscrow); err != nil {
		return err
	}
	if reward > sess.BetNet {
		if err := l.Mint(sess.Player, reward-sess.BetNet); err != nil {
			return err
		}
	} else if sess.BetNet > reward {
		if err := l.Transfer(core.EscrowAddress, core.TreasuryAddress, sess.BetNet-reward); err != nil {
			return err
		}
	}

	stats, err := ctx.State.GetGameStats(sess.GameType)
	if err != nil {
		return err
	}
	if stats.TotalPaid, err = core.AddAmounts(stats.TotalPaid, reward); err != nil {
		return err
	}
	if reward > stats.HighestWin {
		stats.HighestWin = reward
		stats.HighestWinner = sess.Player
	}
	if err := ctx.State.SetGameStats(stats); err != nil {
		return err
	}
	ctx.Emit(events.EventRewardClaimed, map[string]any{"session_id": sess.ID, "player": sess.Player, "reward": reward})
	return nil
}

func handleExpireSession(ctx *vm.Context, payload json.RawMessage) error {
	var p core.SessionPayload
	if err := vm.Decode(payload, &p); err != nil {
		return err
	}
	sess, err := loadSession(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if sess.Result.Terminal() {
		return fmt.Errorf("%w: session %s is %s", core.ErrStateConflict, sess.ID, sess.Result)
	}
	params, err := ctx.Params()
	if err != nil {
		return err
	}
	now := ctx.Now()
	if now < sess.CreatedAt+params.SessionTimeout {
		return fmt.Errorf("%w: session %s expires at %d", core.ErrTiming, sess.ID, sess.CreatedAt+params.SessionTimeout)
	}
	sess.Result = core.ResultExpired
	sess.ResolvedAt = now
	if err := ctx.State.SetSession(sess); err != nil {
		return err
	}
	if err := ledger.New(ctx).Transfer(core.EscrowAddress, sess.Player, sess.BetNet); err != nil {
		return err
	}
	ctx.Emit(events.EventSessionExpired, map[string]any{
		"session_id": sess.ID, "player": sess.Player, "refund": sess.BetNet,
	})
	return nil
}
