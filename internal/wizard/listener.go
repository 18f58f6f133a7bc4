package wizard

import (
	"context"

	"github.com/medexa/medexa-platform/internal/session"
	"github.com/medexa/medexa-platform/pkg/logging"
)

// SignOutListener discards a user's drafts when they sign out.
func SignOutListener(store DraftStore, logger *logging.Logger) session.Listener {
	if logger == nil {
		logger = logging.Default()
	}
	return func(ctx context.Context, ev session.Event) {
		if ev.Type != session.EventSignedOut || ev.UserID == "" {
			return
		}
		n, err := store.DeleteByUser(ctx, ev.UserID)
		if err != nil {
			logger.Error("failed to discard drafts on sign-out", "error", err, "user_id", ev.UserID)
			return
		}
		if n > 0 {
			logger.Info("drafts discarded on sign-out", "user_id", ev.UserID, "count", n)
		}
	}
}
