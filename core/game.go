package core

// GameTypeID identifies a registered mini-game.
type GameTypeID uint8

const (
	GameDiceRoll GameTypeID = iota + 1
	GameCoinFlip
	GameRockPaperScissors
	GameNumberGuess
	GameCardDraw
	GameLuckyLottery
	GameSlotMachine
	GameRandomTreasure
	GameBattleArena
	GameQuestChallenge

	// MaxGameType is the highest registered game type id.
	MaxGameType = GameQuestChallenge
)

var gameNames = map[GameTypeID]string{
	GameDiceRoll:          "DiceRoll",
	GameCoinFlip:          "CoinFlip",
	GameRockPaperScissors: "RockPaperScissors",
	GameNumberGuess:       "NumberGuess",
	GameCardDraw:          "CardDraw",
	GameLuckyLottery:      "LuckyLottery",
	GameSlotMachine:       "SlotMachine",
	GameRandomTreasure:    "RandomTreasure",
	GameBattleArena:       "BattleArena",
	GameQuestChallenge:    "QuestChallenge",
}

func (g GameTypeID) String() string {
	if n, ok := gameNames[g]; ok {
		return n
	}
	return "Unknown"
}

// Valid reports whether g is inside the registered game-type range.
func (g GameTypeID) Valid() bool {
	return g >= GameDiceRoll && g <= MaxGameType
}

// GameType is the per-game configuration.
type GameType struct {
	ID               GameTypeID `json:"id"`
	Name             string     `json:"name"`
	Active           bool       `json:"active"`
	PayoutMultiplier uint64     `json:"payout_multiplier"` // percent of the net bet
}

// ResultState is the outcome of a session.
type ResultState string

const (
	ResultPending   ResultState = "pending"
	ResultWin       ResultState = "win"
	ResultLoss      ResultState = "loss"
	ResultDraw      ResultState = "draw"
	ResultCancelled ResultState = "cancelled"
	ResultExpired   ResultState = "expired"
)

// Terminal reports whether r is an absorbing state.
func (r ResultState) Terminal() bool {
	return r != ResultPending
}

// Move is one submitted player action.
type Move struct {
	Type      uint8  `json:"type"`
	Value     uint64 `json:"value"`
	Timestamp int64  `json:"timestamp"`
}

// BattleState is the BattleArena scratch state.
type BattleState struct {
	PlayerHealth  uint64 `json:"player_health"`
	PlayerAttack  uint64 `json:"player_attack"`
	PlayerDefense uint64 `json:"player_defense"`
	PlayerSpeed   uint64 `json:"player_speed"`
	EnemyHealth   uint64 `json:"enemy_health"`
	EnemyAttack   uint64 `json:"enemy_attack"`
	EnemyDefense  uint64 `json:"enemy_defense"`
	EnemySpeed    uint64 `json:"enemy_speed"`
	Turn          uint64 `json:"turn"`
}

// QuestState is the QuestChallenge scratch state.
type QuestState struct {
	Stage uint8 `json:"stage"`
	Path  uint8 `json:"path"`
}

// GameData holds the per-game scratch state; at most one field is set,
// selected by the session's game type.
type GameData struct {
	Battle *BattleState `json:"battle,omitempty"`
	Quest  *QuestState  `json:"quest,omitempty"`
}

// Session is one round of a mini-game, from bet escrow to reward claim.
type Session struct {
	ID              string      `json:"id"`
	GameType        GameTypeID  `json:"game_type"`
	Player          string      `json:"player"`
	BetAmount       uint64      `json:"bet_amount"` // gross, as paid
	BetNet          uint64      `json:"bet_net"`    // escrowed after the game fee
	PotentialReward uint64      `json:"potential_reward"`
	CreatedAt       int64       `json:"created_at"`
	ResolvedAt      int64       `json:"resolved_at,omitempty"`
	Result          ResultState `json:"result"`
	RewardClaimed   bool        `json:"reward_claimed"`
	Data            GameData    `json:"data"`
	Moves           []Move      `json:"moves"`
}

// LeaderboardEntry is one ranked score.
type LeaderboardEntry struct {
	Player    string `json:"player"`
	Score     uint64 `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// Leaderboard is kept sorted by descending score.
type Leaderboard struct {
	GameType GameTypeID         `json:"game_type"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// GameStats aggregates per-game-type results.
type GameStats struct {
	GameType      GameTypeID `json:"game_type"`
	GamesPlayed   uint64     `json:"games_played"`
	Wins          uint64     `json:"wins"`
	TotalPaid     uint64     `json:"total_paid"`
	HighestWin    uint64     `json:"highest_win"`
	HighestWinner string     `json:"highest_winner,omitempty"`
}

var defaultPayouts = map[GameTypeID]uint64{
	GameDiceRoll:          500,
	GameCoinFlip:          190,
	GameRockPaperScissors: 200,
	GameNumberGuess:       900,
	GameCardDraw:          190,
	GameLuckyLottery:      9000,
	GameSlotMachine:       1000,
	GameRandomTreasure:    100,
	GameBattleArena:       200,
	GameQuestChallenge:    300,
}

// DefaultGameTypes returns every game type, active, with its default payout.
func DefaultGameTypes() []*GameType {
	out := make([]*GameType, 0, int(MaxGameType))
	for id := GameDiceRoll; id <= MaxGameType; id++ {
		out = append(out, &GameType{
			ID:               id,
			Name:             id.String(),
			Active:           true,
			PayoutMultiplier: defaultPayouts[id],
		})
	}
	return out
}
