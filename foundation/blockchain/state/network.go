package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1"

// ChainFetcher represents the behavior required to retrieve the full chain
// held by a peer.
type ChainFetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) (database.ChainData, error)
}

// =============================================================================

// HTTPFetcher retrieves peer chains over the node's HTTP API. Every call is a
// short lived request, no connection state is kept between calls.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher constructs a fetcher where each request has the specified
// amount of time to complete.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchChain implements the ChainFetcher interface.
func (f *HTTPFetcher) FetchChain(ctx context.Context, pr peer.Peer) (database.ChainData, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(f.baseURL, pr.Host))

	var chainData database.ChainData
	if err := send(ctx, f.client, http.MethodGet, url, nil, &chainData); err != nil {
		return database.ChainData{}, err
	}

	return chainData, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(string(msg)))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
