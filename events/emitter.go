package events

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType labels what happened.
type EventType string

const (
	EventBlockCommit EventType = "block_commit"
	EventTxExecuted  EventType = "tx_executed"
	EventTxFailed    EventType = "tx_failed"

	EventTokenTransfer  EventType = "token_transfer"
	EventNativeTransfer EventType = "native_transfer"
	EventTokenMinted    EventType = "token_minted"
	EventTokenBurned    EventType = "token_burned"

	EventFeeCollected      EventType = "fee_collected"
	EventReferralPaid      EventType = "referral_paid"
	EventReferrerSet       EventType = "referrer_set"
	EventTreasuryWithdrawn EventType = "treasury_withdrawn"

	EventStaked              EventType = "staked"
	EventUnstaked            EventType = "unstaked"
	EventStakingRewardClaim  EventType = "staking_reward_claimed"
	EventAchievementUnlocked EventType = "achievement_unlocked"

	EventLiquidityAdded   EventType = "liquidity_added"
	EventLiquidityRemoved EventType = "liquidity_removed"
	EventSwap             EventType = "swap"

	EventSessionOpen     EventType = "session_open"
	EventMoveSubmitted   EventType = "move_submitted"
	EventSessionResolved EventType = "session_resolved"
	EventSessionExpired  EventType = "session_expired"
	EventRewardClaimed   EventType = "game_reward_claimed"
	EventLeaderboard     EventType = "leaderboard_updated"

	EventCollectionCreated EventType = "collection_created"
	EventNFTMinted         EventType = "nft_minted"
	EventNFTTransfer       EventType = "nft_transfer"
	EventMarketList        EventType = "market_list"
	EventMarketCancel      EventType = "market_cancel"
	EventMarketBuy         EventType = "market_buy"
	EventAuctionCreated    EventType = "auction_created"
	EventAuctionBid        EventType = "auction_bid"
	EventAuctionSettled    EventType = "auction_settled"
	EventAuctionCancelled  EventType = "auction_cancelled"
	EventNFTStaked         EventType = "nft_staked"
	EventNFTRewardClaimed  EventType = "nft_reward_claimed"
	EventNFTUnstaked       EventType = "nft_unstaked"

	EventProposalCreated  EventType = "proposal_created"
	EventVoteCast         EventType = "vote_cast"
	EventProposalExecuted EventType = "proposal_executed"
	EventCallScheduled    EventType = "call_scheduled"
	EventCallExecuted     EventType = "call_executed"
	EventCallCancelled    EventType = "call_cancelled"

	EventParamsUpdated EventType = "params_updated"
	EventPaused        EventType = "paused"
	EventGameUpdated   EventType = "game_updated"
	EventRoleUpdated   EventType = "role_updated"
)

// Event carries a typed payload emitted after a state change.
type Event struct {
	Type        EventType      `json:"type"`
	TxID        string         `json:"tx_id"`
	BlockHeight int64          `json:"block_height"`
	Data        map[string]any `json:"data"`
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[EventType][]Handler)}
}

// Subscribe registers h to be called whenever typ is emitted.
func (e *Emitter) Subscribe(typ EventType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[typ] = append(e.handlers[typ], h)
}

// SubscribeAll registers h for every event type.
func (e *Emitter) SubscribeAll(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, h)
}

// Emit delivers ev to all subscribers for ev.Type synchronously.
// Each handler is guarded by panic recovery so a misbehaving subscriber
// cannot crash the node or halt block production.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.handlers[ev.Type])+len(e.all))
	handlers = append(handlers, e.handlers[ev.Type]...)
	handlers = append(handlers, e.all...)
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{"module": "events", "type": ev.Type}).
						Errorf("handler panicked: %v", r)
				}
			}()
			h(ev)
		}()
	}
}
