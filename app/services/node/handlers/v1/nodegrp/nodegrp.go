// Package nodegrp maintains the group of handlers for node access.
package nodegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledgerworks/powchain/business/sys/validate"
	v1 "github.com/ledgerworks/powchain/business/web/v1"
	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
	"github.com/ledgerworks/powchain/foundation/blockchain/state"
	"github.com/ledgerworks/powchain/foundation/events"
	"github.com/ledgerworks/powchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// NewTransaction adds a new transaction to the pending pool.
func (h Handlers) NewTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nt newTx
	if err := web.Decode(r, &nt); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	tx := database.NewTx(*nt.Sender, *nt.Recipient, *nt.Amount)

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx)
	index := h.State.NewTransaction(tx)

	resp := txAdded{
		Message: fmt.Sprintf("transactions will be added to block %d", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mine solves the proof of work for the latest block, rewards this node and
// seals the pending transactions into a new block.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrChainChanged):
			return v1.NewRequestError(err, http.StatusConflict)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return v1.NewRequestError(errors.New("mining cancelled"), http.StatusServiceUnavailable)
		}
		return fmt.Errorf("mining: %w", err)
	}

	h.Log.Infow("mined block", "traceid", v.TraceID, "index", block.Index, "proof", block.Proof, "took", time.Since(v.Now))

	resp := blockMined{
		Message:      "new Block",
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
		Timestamp:    block.Timestamp,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns the full local chain and its length.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, database.NewChainData(h.State.RetrieveChain()), http.StatusOK)
}

// RegisterNodes adds peers to the set of known nodes. Every address is
// checked before any is added so a bad request changes nothing.
func (h Handlers) RegisterNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nn newNodes
	if err := web.Decode(r, &nn); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := validate.Check(nn); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	for _, address := range nn.Nodes {
		if _, err := peer.ParseAddress(address); err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	for _, address := range nn.Nodes {
		pr, err := h.State.RegisterNode(address)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		h.Log.Infow("register node", "traceid", v.TraceID, "host", pr.Host)
	}

	peers := h.State.RetrieveKnownPeers()
	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}

	resp := nodesAdded{
		Message:    "new node has been added",
		TotalNodes: hosts,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Resolve runs the consensus algorithm against every known peer and reports
// whether the local chain was replaced.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced, err := h.State.ResolveConflicts(ctx)
	if err != nil {
		return fmt.Errorf("resolving conflicts: %w", err)
	}

	resp := resolved{
		Message:  "our chain was authoritative",
		Replaced: replaced,
		Chain:    h.State.RetrieveChain(),
	}
	if replaced {
		resp.Message = "our chain was replaced"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the set of transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans := h.State.RetrieveMempool()

	resp := pending{
		Transactions: trans,
		Count:        len(trans),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the blockchain.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the blockchain or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}
