package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/park-ledger/internal/model"
	"github.com/iliyamo/park-ledger/internal/store"
)

const keepAliveEvery = 25 * time.Second

// EventsHandler streams ledger changes as server-sent events so open views
// can refetch what changed.
type EventsHandler struct {
	Store *store.Store
}

func NewEventsHandler(st *store.Store) *EventsHandler { return &EventsHandler{Store: st} }

func (h *EventsHandler) Stream(c echo.Context) error {
	changes := make(chan model.Change, 16)
	cancel := h.Store.Subscribe(func(ch model.Change) {
		// Store writers must not block on a slow client.
		select {
		case changes <- ch:
		default:
		}
	})
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}
	w.Flush()

	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case ch := <-changes:
			data, err := json.Marshal(ch)
			if err != nil {
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ch.Kind, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
