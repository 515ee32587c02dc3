package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/internal/testutil"
	"github.com/tolelom/arcadechain/wallet"
)

// open starts a session and returns its id.
func open(t *testing.T, c *testutil.Chain, w *wallet.Wallet, gt core.GameTypeID, bet uint64) string {
	t.Helper()
	c.MustSend(w, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: gt, BetAmount: bet})
	evs := c.Events(events.EventSessionOpen)
	require.NotEmpty(t, evs)
	id, ok := evs[len(evs)-1].Data["session_id"].(string)
	require.True(t, ok)
	return id
}

func move(c *testutil.Chain, w *wallet.Wallet, id string, typ uint8, value uint64) error {
	return c.Send(w, core.TxSubmitMove, 0, core.SubmitMovePayload{SessionID: id, MoveType: typ, MoveValue: value})
}

func session(t *testing.T, c *testutil.Chain, id string) *core.Session {
	t.Helper()
	sess, err := c.State.GetSession(id)
	require.NoError(t, err)
	return sess
}

func TestMinimumBet(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(100, 0)

	err := c.Send(w, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: core.GameCoinFlip, BetAmount: 9})
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, uint64(100), c.Account(w.PubKey()).Tokens)
	assert.Zero(t, c.Account(core.EscrowAddress).Tokens)

	id := open(t, c, w, core.GameCoinFlip, 10)
	sess := session(t, c, id)
	assert.Equal(t, uint64(10), sess.BetNet)
	assert.Equal(t, uint64(19), sess.PotentialReward)
	assert.Equal(t, core.ResultPending, sess.Result)
	assert.Equal(t, uint64(90), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(10), c.Account(core.EscrowAddress).Tokens)
}

func TestCreateSessionRejections(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(50, 0)

	assert.ErrorIs(t, c.Send(w, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: 0, BetAmount: 10}), core.ErrValidation)
	assert.ErrorIs(t, c.Send(w, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: core.GameDiceRoll, BetAmount: 51}), core.ErrInsufficientFunds)

	c.MustSend(c.Owner, core.TxAdminSetGameStatus, 0, core.SetGameStatusPayload{GameType: core.GameDiceRoll, Active: false})
	assert.ErrorIs(t, c.Send(w, core.TxCreateSession, 0, core.CreateSessionPayload{GameType: core.GameDiceRoll, BetAmount: 10}), core.ErrValidation)
}

func TestGuessGames(t *testing.T) {
	cases := []struct {
		name  string
		game  core.GameTypeID
		guess uint64
		raw   uint64 // queued draw before the lower bound is added
		want  core.ResultState
	}{
		{"dice hit", core.GameDiceRoll, 4, 3, core.ResultWin},
		{"dice miss", core.GameDiceRoll, 4, 0, core.ResultLoss},
		{"coin hit", core.GameCoinFlip, 1, 1, core.ResultWin},
		{"number hit", core.GameNumberGuess, 7, 6, core.ResultWin},
		{"card higher", core.GameCardDraw, 13, 0, core.ResultWin},
		{"card equal", core.GameCardDraw, 5, 4, core.ResultLoss},
		{"lottery hit", core.GameLuckyLottery, 100, 99, core.ResultWin},
		{"rps rock beats scissors", core.GameRockPaperScissors, 0, 2, core.ResultWin},
		{"rps rock ties", core.GameRockPaperScissors, 0, 0, core.ResultDraw},
		{"rps rock loses to paper", core.GameRockPaperScissors, 0, 1, core.ResultLoss},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testutil.NewChain(t)
			w := c.NewAccount(1000, 0)
			id := open(t, c, w, tc.game, 100)

			c.Rand.Push(tc.raw)
			require.NoError(t, move(c, w, id, 0, tc.guess))
			assert.Equal(t, tc.want, session(t, c, id).Result)
			assert.Zero(t, c.Rand.Pending())
		})
	}
}

func TestCardDrawRewardFollowsOdds(t *testing.T) {
	cases := []struct {
		guess, raw, reward uint64
	}{
		{13, 0, 100}, // 186 * 13/24
		{7, 0, 201},  // 186 * 13/12
		{2, 0, 1209}, // 186 * 13/2
	}
	for _, tc := range cases {
		c := testutil.NewChain(t)
		w := c.NewAccount(1000, 0)
		id := open(t, c, w, core.GameCardDraw, 100)
		c.Rand.Push(tc.raw)
		require.NoError(t, move(c, w, id, 0, tc.guess))
		sess := session(t, c, id)
		assert.Equal(t, core.ResultWin, sess.Result, "guess %d", tc.guess)
		assert.Equal(t, tc.reward, sess.PotentialReward, "guess %d", tc.guess)
	}
}

func TestGuessOutOfRange(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameDiceRoll, 100)

	assert.ErrorIs(t, move(c, w, id, 0, 7), core.ErrValidation)
	assert.ErrorIs(t, move(c, w, id, 0, 0), core.ErrValidation)
	assert.Equal(t, core.ResultPending, session(t, c, id).Result)
}

func TestLossAndDrawSettlement(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)

	lost := open(t, c, w, core.GameCoinFlip, 100)
	c.Rand.Push(0)
	require.NoError(t, move(c, w, lost, 0, 1))
	assert.Equal(t, uint64(100), c.Account(core.TreasuryAddress).Tokens) // fee 2 + net 98

	tied := open(t, c, w, core.GameRockPaperScissors, 100)
	c.Rand.Push(1)
	require.NoError(t, move(c, w, tied, 0, 1))
	assert.Equal(t, core.ResultDraw, session(t, c, tied).Result)
	assert.Equal(t, uint64(1000-100-2), c.Account(w.PubKey()).Tokens)
	assert.Zero(t, c.Account(core.EscrowAddress).Tokens)

	assert.ErrorIs(t, c.Send(w, core.TxClaimGameReward, 0, core.SessionPayload{SessionID: tied}), core.ErrStateConflict)
}

func TestClaimMintsExcessOnce(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameDiceRoll, 100)

	c.Rand.Push(3)
	require.NoError(t, move(c, w, id, 0, 4))
	sess := session(t, c, id)
	require.Equal(t, core.ResultWin, sess.Result)
	assert.Equal(t, uint64(490), sess.PotentialReward)

	supply := c.Globals().TotalSupply
	c.MustSend(w, core.TxClaimGameReward, 0, core.SessionPayload{SessionID: id})
	assert.Equal(t, uint64(1000-100+490), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, supply+490-98, c.Globals().TotalSupply)
	assert.Zero(t, c.Account(core.EscrowAddress).Tokens)

	err := c.Send(w, core.TxClaimGameReward, 0, core.SessionPayload{SessionID: id})
	assert.ErrorIs(t, err, core.ErrStateConflict)

	stats, err := c.State.GetGameStats(core.GameDiceRoll)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.GamesPlayed)
	assert.Equal(t, uint64(1), stats.Wins)
	assert.Equal(t, uint64(490), stats.TotalPaid)
	assert.Equal(t, w.PubKey(), stats.HighestWinner)
}

func TestClaimByOtherPlayer(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	other := c.NewAccount(0, 0)
	id := open(t, c, w, core.GameCoinFlip, 100)
	c.Rand.Push(1)
	require.NoError(t, move(c, w, id, 0, 1))

	assert.ErrorIs(t, c.Send(other, core.TxClaimGameReward, 0, core.SessionPayload{SessionID: id}), core.ErrUnauthorized)
	assert.ErrorIs(t, move(c, other, id, 0, 1), core.ErrUnauthorized)
}

func TestSlots(t *testing.T) {
	cases := []struct {
		name   string
		reels  []uint64
		result core.ResultState
		reward uint64
	}{
		{"jackpot", []uint64{7, 7, 7}, core.ResultWin, 1470},
		{"triple", []uint64{3, 3, 3}, core.ResultWin, 980},
		{"pair", []uint64{1, 5, 1}, core.ResultWin, 147},
		{"nothing", []uint64{1, 2, 3}, core.ResultLoss, 980},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testutil.NewChain(t)
			w := c.NewAccount(1000, 0)
			id := open(t, c, w, core.GameSlotMachine, 100)
			c.Rand.Push(tc.reels...)
			require.NoError(t, move(c, w, id, 0, 0))
			sess := session(t, c, id)
			assert.Equal(t, tc.result, sess.Result)
			assert.Equal(t, tc.reward, sess.PotentialReward)
		})
	}
}

func TestTreasureBelowBetSendsRestToTreasury(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameRandomTreasure, 100)

	c.Rand.Push(10)
	require.NoError(t, move(c, w, id, 0, 0))
	require.Equal(t, uint64(49), session(t, c, id).PotentialReward)

	c.MustSend(w, core.TxClaimGameReward, 0, core.SessionPayload{SessionID: id})
	assert.Equal(t, uint64(900+49), c.Account(w.PubKey()).Tokens)
	assert.Equal(t, uint64(2+49), c.Account(core.TreasuryAddress).Tokens)
}

func TestBattleWin(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameBattleArena, 100)

	// Weakest enemy: 80 hp, 15 atk, 5 def, 5 spd.
	c.Rand.Push(0, 0, 0, 0)
	require.NoError(t, move(c, w, id, 0, 0))
	b := session(t, c, id).Data.Battle
	require.NotNil(t, b)
	assert.Equal(t, uint64(80), b.EnemyHealth)

	// Each attack deals 15; the enemy answers with 5 until it falls on the sixth.
	for i := 0; i < 5; i++ {
		c.Rand.Push(99)
		require.NoError(t, move(c, w, id, 1, 0))
	}
	require.NoError(t, move(c, w, id, 1, 0))

	sess := session(t, c, id)
	assert.Equal(t, core.ResultWin, sess.Result)
	assert.Equal(t, uint64(75), sess.Data.Battle.PlayerHealth)
	assert.Zero(t, c.Rand.Pending())
}

func TestBattleDefendAndSpecial(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameBattleArena, 100)

	// Strongest enemy: 120 hp, 25 atk, 15 def, 15 spd.
	c.Rand.Push(40, 10, 10, 10)
	require.NoError(t, move(c, w, id, 0, 0))

	// Defend against a heavy hit: (25-10)*3/2 = 22, halved to 11.
	c.Rand.Push(0)
	require.NoError(t, move(c, w, id, 2, 0))
	assert.Equal(t, uint64(89), session(t, c, id).Data.Battle.PlayerHealth)

	// The faster enemy strikes first, then a special that procs deals
	// double damage: 2*(20-15) = 10.
	c.Rand.Push(99, 0)
	require.NoError(t, move(c, w, id, 3, 0))
	b := session(t, c, id).Data.Battle
	assert.Equal(t, uint64(110), b.EnemyHealth)
	assert.Equal(t, uint64(74), b.PlayerHealth)

	// A special that misses leaves the enemy untouched.
	c.Rand.Push(99, 30)
	require.NoError(t, move(c, w, id, 3, 0))
	assert.Equal(t, uint64(110), session(t, c, id).Data.Battle.EnemyHealth)

	assert.ErrorIs(t, move(c, w, id, 9, 0), core.ErrValidation)
}

func TestBattleSpeedDecidesFirstStrike(t *testing.T) {
	cases := []struct {
		name     string
		speedRaw uint64
		final    []uint64 // draws on the fifth exchange
		want     core.ResultState
	}{
		{"slower enemy falls first", 0, nil, core.ResultWin},
		{"faster enemy lands the last blow", 10, []uint64{0}, core.ResultLoss},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testutil.NewChain(t)
			w := c.NewAccount(1000, 0)
			id := open(t, c, w, core.GameBattleArena, 100)

			// 80 hp, 25 atk, 5 def: the player deals 15 a hit and takes 22
			// from each heavy blow.
			c.Rand.Push(0, 10, 0, tc.speedRaw)
			require.NoError(t, move(c, w, id, 0, 0))

			c.Rand.Push(0, 0) // special procs, heavy blow
			require.NoError(t, move(c, w, id, 3, 0))
			for i := 0; i < 3; i++ {
				c.Rand.Push(0)
				require.NoError(t, move(c, w, id, 1, 0))
			}
			b := session(t, c, id).Data.Battle
			require.Equal(t, uint64(5), b.EnemyHealth)
			require.Equal(t, uint64(12), b.PlayerHealth)

			c.Rand.Push(tc.final...)
			require.NoError(t, move(c, w, id, 1, 0))
			assert.Equal(t, tc.want, session(t, c, id).Result)
			assert.Zero(t, c.Rand.Pending())
		})
	}
}

func TestBattleOpensWithStart(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameBattleArena, 100)

	assert.ErrorIs(t, move(c, w, id, 1, 0), core.ErrValidation)
	assert.Nil(t, session(t, c, id).Data.Battle)
	require.NoError(t, move(c, w, id, 0, 0))
	assert.NotNil(t, session(t, c, id).Data.Battle)
}

func TestQuest(t *testing.T) {
	cases := []struct {
		name   string
		path   uint64
		pushes [][]uint64 // per stage
		moves  []uint64
		result core.ResultState
		reward uint64
	}{
		{"easy path", 1, [][]uint64{{0}, {1}, {5}}, []uint64{1, 2, 0}, core.ResultWin, 294},
		{"hard path bonus", 3, [][]uint64{{0}, {2}, {1}}, []uint64{3, 3, 0}, core.ResultWin, 441},
		{"medium combat tie passes", 2, [][]uint64{{0}, {1}, {4}}, []uint64{2, 1, 0}, core.ResultWin, 367},
		{"medium weak power", 2, [][]uint64{{0}, {1}, {3}}, []uint64{2, 1, 10}, core.ResultLoss, 294},
		{"path roll fails", 3, [][]uint64{{40}}, []uint64{3}, core.ResultLoss, 294},
		{"weak boss hit", 1, [][]uint64{{0}, {0}, {3}}, []uint64{1, 1, 10}, core.ResultLoss, 294},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testutil.NewChain(t)
			w := c.NewAccount(1000, 0)
			id := open(t, c, w, core.GameQuestChallenge, 100)
			for i, mv := range tc.moves {
				c.Rand.Push(tc.pushes[i]...)
				require.NoError(t, move(c, w, id, 0, mv))
			}
			sess := session(t, c, id)
			assert.Equal(t, tc.result, sess.Result)
			assert.Equal(t, tc.reward, sess.PotentialReward)
		})
	}
}

func TestMoveOnResolvedSession(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	id := open(t, c, w, core.GameCoinFlip, 100)
	c.Rand.Push(0)
	require.NoError(t, move(c, w, id, 0, 1))
	assert.ErrorIs(t, move(c, w, id, 0, 1), core.ErrStateConflict)
}

func TestExpiry(t *testing.T) {
	c := testutil.NewChain(t)
	w := c.NewAccount(1000, 0)
	keeper := c.NewAccount(0, 0)
	id := open(t, c, w, core.GameDiceRoll, 100)

	c.Advance(c.Params().SessionTimeout - 1)
	assert.ErrorIs(t, c.Send(keeper, core.TxExpireSession, 0, core.SessionPayload{SessionID: id}), core.ErrTiming)

	c.Advance(1)
	assert.ErrorIs(t, move(c, w, id, 0, 3), core.ErrTiming)

	c.MustSend(keeper, core.TxExpireSession, 0, core.SessionPayload{SessionID: id})
	assert.Equal(t, core.ResultExpired, session(t, c, id).Result)
	assert.Equal(t, uint64(998), c.Account(w.PubKey()).Tokens)
	assert.Zero(t, c.Account(core.EscrowAddress).Tokens)

	assert.ErrorIs(t, c.Send(keeper, core.TxExpireSession, 0, core.SessionPayload{SessionID: id}), core.ErrStateConflict)
}

func TestLeaderboardRecordsWins(t *testing.T) {
	c := testutil.NewChain(t)
	a := c.NewAccount(10_000, 0)
	b := c.NewAccount(10_000, 0)

	for _, p := range []struct {
		w   *wallet.Wallet
		bet uint64
	}{{a, 100}, {b, 200}, {a, 50}} {
		id := open(t, c, p.w, core.GameCoinFlip, p.bet)
		c.Rand.Push(1)
		require.NoError(t, move(c, p.w, id, 0, 1))
	}

	board, err := c.State.GetLeaderboard(core.GameCoinFlip)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, b.PubKey(), board.Entries[0].Player)
	assert.Equal(t, a.PubKey(), board.Entries[1].Player)
	assert.Equal(t, uint64(186), board.Entries[1].Score)
}
