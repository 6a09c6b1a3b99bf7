package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/enesbrtc/enes.codes/internal/hub"
	"github.com/enesbrtc/enes.codes/internal/metrics"
	"github.com/enesbrtc/enes.codes/internal/store"
	"github.com/enesbrtc/enes.codes/internal/terminal"
)

// TerminalOpener builds the hub's terminals: the visitor is recorded in st,
// flags and history come from st, and every dispatch is observed by m.
func TerminalOpener(st *store.Store, m *metrics.Metrics, bootDelay time.Duration) hub.OpenFunc {
	return func(ctx context.Context, visitorID string) (*terminal.Terminal, string, error) {
		visitor, err := st.Visitors().Touch(ctx, visitorID)
		if err != nil {
			return nil, "", fmt.Errorf("record visitor: %w", err)
		}
		m.RecordVisit(visitor.Visits > 1)

		state := st.ForVisitor(visitor.ID)
		term, err := terminal.New(terminal.Options{
			Flags:      state,
			Log:        state,
			BootDelay:  bootDelay,
			OnDispatch: m.ObserveDispatch,
			Logger:     slog.Default().With("visitor_id", visitor.ID),
		})
		if err != nil {
			return nil, "", fmt.Errorf("create terminal: %w", err)
		}
		return term, visitor.ID, nil
	}
}
