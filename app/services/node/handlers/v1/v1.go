// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ledgerworks/powchain/app/services/node/handlers/v1/nodegrp"
	"github.com/ledgerworks/powchain/foundation/blockchain/state"
	"github.com/ledgerworks/powchain/foundation/events"
	"github.com/ledgerworks/powchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	ngh := nodegrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/transactions/new", ngh.NewTransaction)
	app.Handle(http.MethodGet, version, "/transactions/pending", ngh.Pending)
	app.Handle(http.MethodGet, version, "/mine", ngh.Mine)
	app.Handle(http.MethodGet, version, "/chain", ngh.Chain)
	app.Handle(http.MethodPost, version, "/nodes/register", ngh.RegisterNodes)
	app.Handle(http.MethodGet, version, "/nodes/resolve", ngh.Resolve)
	app.Handle(http.MethodGet, version, "/events", ngh.Events)
}
