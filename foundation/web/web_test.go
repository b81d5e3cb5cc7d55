package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/ledgerworks/powchain/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestHandle(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	var traceID string
	app.Handle(http.MethodGet, "v1", "/echo/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}
		traceID = v.TraceID

		resp := struct {
			Name string `json:"name"`
		}{
			Name: web.Param(r, "name"),
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodGet, "v1", "/halt", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity problem")
	})

	t.Log("Given the need to route requests through middleware.")
	{
		r := httptest.NewRequest(http.MethodGet, "/v1/echo/bill", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould get a 200 status: got %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould get a 200 status.", success)

		if got := strings.TrimSpace(w.Body.String()); got != `{"name":"bill"}` {
			t.Fatalf("\t%s\tShould get the route parameter back: got %s", failed, got)
		}
		t.Logf("\t%s\tShould get the route parameter back.", success)

		if len(order) != 2 || order[0] != "app" || order[1] != "route" {
			t.Fatalf("\t%s\tShould run app middleware before route middleware: got %v", failed, order)
		}
		t.Logf("\t%s\tShould run app middleware before route middleware.", success)

		if traceID == "" {
			t.Fatalf("\t%s\tShould have a trace id for the request.", failed)
		}
		t.Logf("\t%s\tShould have a trace id for the request.", success)
	}

	t.Log("Given the need to shutdown on integrity errors.")
	{
		r := httptest.NewRequest(http.MethodGet, "/v1/halt", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		select {
		case sig := <-shutdown:
			if sig != syscall.SIGTERM {
				t.Fatalf("\t%s\tShould get a SIGTERM: got %v", failed, sig)
			}
			t.Logf("\t%s\tShould signal a shutdown.", success)
		default:
			t.Fatalf("\t%s\tShould signal a shutdown.", failed)
		}
	}
}

func TestIsShutdown(t *testing.T) {
	err := web.NewShutdownError("boom")
	if !web.IsShutdown(err) {
		t.Fatalf("\t%s\tShould detect a shutdown error.", failed)
	}

	wrapped := errors.Join(errors.New("context"), err)
	if !web.IsShutdown(wrapped) {
		t.Fatalf("\t%s\tShould detect a wrapped shutdown error.", failed)
	}

	if web.IsShutdown(errors.New("boom")) {
		t.Fatalf("\t%s\tShould not detect a regular error.", failed)
	}
	t.Logf("\t%s\tShould detect shutdown errors.", success)
}
