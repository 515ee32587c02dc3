package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/indexer"
	"github.com/tolelom/arcadechain/vm/modules/timelock"
)

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	bc      *core.Blockchain
	mempool *core.Mempool
	state   core.State
	indexer *indexer.Indexer
	chainID string // expected chain_id; used to reject cross-chain replay transactions
	methods map[string]func(Request) Response
}

// NewHandler creates an RPC Handler.
func NewHandler(bc *core.Blockchain, mempool *core.Mempool, state core.State, idx *indexer.Indexer, chainID string) *Handler {
	h := &Handler{bc: bc, mempool: mempool, state: state, indexer: idx, chainID: chainID}
	h.methods = map[string]func(Request) Response{
		"getBlockHeight":       func(req Request) Response { return okResponse(req.ID, h.bc.Height()) },
		"getBlock":             h.getBlock,
		"getBalance":           h.getBalance,
		"getAccount":           h.getAccount,
		"getPool":              h.getPool,
		"getParams":            h.getParams,
		"getSession":           h.getSession,
		"getLeaderboard":       h.getLeaderboard,
		"getGameStats":         h.getGameStats,
		"getNFT":               h.getNFT,
		"getListing":           h.getListing,
		"getAuction":           h.getAuction,
		"getProposal":          h.getProposal,
		"getTimelockOperation": h.getTimelockOperation,
		"getSessionsByPlayer":  h.getSessionsByPlayer,
		"getNFTsByOwner":       h.getNFTsByOwner,
		"sendTx":               h.sendTx,
		"getMempoolSize":       func(req Request) Response { return okResponse(req.ID, h.mempool.Size()) },
	}
	return h
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	m, ok := h.methods[req.Method]
	if !ok {
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
	return m(req)
}

// decode unmarshals req.Params into v. A non-nil Response reports the failure.
func decode(req Request, v any) *Response {
	if err := json.Unmarshal(req.Params, v); err != nil {
		resp := errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		return &resp
	}
	return nil
}

// result maps a state lookup onto a response.
func result(req Request, v any, err error) Response {
	if err != nil {
		return errResponse(req.ID, codeFor(err), err.Error())
	}
	return okResponse(req.ID, v)
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Hash   string `json:"hash"`
		Height *int64 `json:"height"`
	}
	if resp := decode(req, &params); resp != nil {
		return *resp
	}

	var block *core.Block
	var err error
	if params.Hash != "" {
		block, err = h.bc.GetBlock(params.Hash)
	} else if params.Height != nil {
		block, err = h.bc.GetBlockByHeight(*params.Height)
	} else {
		block = h.bc.Tip()
	}
	if err == nil && block == nil {
		err = fmt.Errorf("%w: no block", core.ErrNotFound)
	}
	return result(req, block, err)
}

type addressParams struct {
	Address string `json:"address"`
}

func (h *Handler) address(req Request) (string, *Response) {
	var params addressParams
	if resp := decode(req, &params); resp != nil {
		return "", resp
	}
	if params.Address == "" {
		resp := errResponse(req.ID, CodeInvalidParams, "address is required")
		return "", &resp
	}
	return params.Address, nil
}

func (h *Handler) getBalance(req Request) Response {
	addr, resp := h.address(req)
	if resp != nil {
		return *resp
	}
	acc, err := h.state.GetAccount(addr)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{
		"address": addr, "balance": acc.Balance, "tokens": acc.Tokens, "nonce": acc.Nonce,
	})
}

func (h *Handler) getAccount(req Request) Response {
	addr, resp := h.address(req)
	if resp != nil {
		return *resp
	}
	acc, err := h.state.GetAccount(addr)
	return result(req, acc, err)
}

func (h *Handler) getPool(req Request) Response {
	g, err := h.state.GetGlobals()
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"pool": g.Pool, "total_supply": g.TotalSupply})
}

func (h *Handler) getParams(req Request) Response {
	p, err := h.state.GetParams()
	return result(req, p, err)
}

func (h *Handler) getSession(req Request) Response {
	var params struct {
		ID string `json:"id"`
	}
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	if params.ID == "" {
		return errResponse(req.ID, CodeInvalidParams, "id is required")
	}
	sess, err := h.state.GetSession(params.ID)
	return result(req, sess, err)
}

type gameParams struct {
	GameType core.GameTypeID `json:"game_type"`
}

func (h *Handler) gameType(req Request) (core.GameTypeID, *Response) {
	var params gameParams
	if resp := decode(req, &params); resp != nil {
		return 0, resp
	}
	if !params.GameType.Valid() {
		resp := errResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown game type %d", params.GameType))
		return 0, &resp
	}
	return params.GameType, nil
}

func (h *Handler) getLeaderboard(req Request) Response {
	gt, resp := h.gameType(req)
	if resp != nil {
		return *resp
	}
	board, err := h.state.GetLeaderboard(gt)
	return result(req, board, err)
}

func (h *Handler) getGameStats(req Request) Response {
	gt, resp := h.gameType(req)
	if resp != nil {
		return *resp
	}
	stats, err := h.state.GetGameStats(gt)
	return result(req, stats, err)
}

func (h *Handler) getNFT(req Request) Response {
	var params core.NFTRef
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	if params.CollectionID == "" {
		return errResponse(req.ID, CodeInvalidParams, "collection_id is required")
	}
	n, err := h.state.GetNFT(params.CollectionID, params.TokenID)
	return result(req, n, err)
}

type idParams struct {
	ID uint64 `json:"id"`
}

func (h *Handler) getListing(req Request) Response {
	var params idParams
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	l, err := h.state.GetListing(params.ID)
	return result(req, l, err)
}

func (h *Handler) getAuction(req Request) Response {
	var params idParams
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	a, err := h.state.GetAuction(params.ID)
	return result(req, a, err)
}

func (h *Handler) getProposal(req Request) Response {
	var params idParams
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	p, err := h.state.GetProposal(params.ID)
	return result(req, p, err)
}

// getTimelockOperation returns the stored operation with its derived state
// as of the latest block (or now, before the first block).
func (h *Handler) getTimelockOperation(req Request) Response {
	var params struct {
		ID string `json:"id"`
	}
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	if params.ID == "" {
		return errResponse(req.ID, CodeInvalidParams, "id is required")
	}
	op, err := h.state.GetTimelockOp(params.ID)
	if err != nil {
		return result(req, nil, err)
	}
	st, err := timelock.State(h.state, op.ID, h.bc.Now(time.Now().Unix()))
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"operation": op, "state": st})
}

func (h *Handler) getSessionsByPlayer(req Request) Response {
	var params struct {
		Player string `json:"player"`
	}
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	if params.Player == "" {
		return errResponse(req.ID, CodeInvalidParams, "player is required")
	}
	ids, err := h.indexer.GetSessionsByPlayer(params.Player)
	return result(req, ids, err)
}

func (h *Handler) getNFTsByOwner(req Request) Response {
	var params struct {
		Owner string `json:"owner"`
	}
	if resp := decode(req, &params); resp != nil {
		return *resp
	}
	if params.Owner == "" {
		return errResponse(req.ID, CodeInvalidParams, "owner is required")
	}
	ids, err := h.indexer.GetNFTsByOwner(params.Owner)
	return result(req, ids, err)
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if resp := decode(req, &tx); resp != nil {
		return *resp
	}
	// Reject transactions destined for a different network to prevent
	// cross-chain replay attacks.
	if tx.ChainID != h.chainID {
		return errResponse(req.ID, CodeInvalidParams,
			fmt.Sprintf("chain ID mismatch: got %q want %q", tx.ChainID, h.chainID))
	}
	// Recompute the ID server-side; do not trust the client-provided value.
	tx.ID = tx.Hash()
	if err := h.mempool.Add(&tx); err != nil {
		return errResponse(req.ID, codeFor(err), err.Error())
	}
	return okResponse(req.ID, map[string]string{"tx_id": tx.ID})
}
