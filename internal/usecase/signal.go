package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/oakmere/adviserdesk"
)

// GroupChannel names the redis channel carrying events for one account
// group.
func GroupChannel(group string) string {
	return "facts:" + group
}

// settle flushes the server-side group caches touched by a mutation and
// publishes the change event. Failures here are logged, not surfaced: the
// write itself has already committed.
func settle(
	ctx context.Context,
	persons PersonRepository,
	signal SignalPublisher,
	invalidate func(context.Context, string),
	event adviserdesk.Event,
) {
	groups, err := persons.GroupsOf(ctx, event.Owner)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to resolve groups for change event",
			slog.String("error", err.Error()),
			slog.String("module", "usecase"),
		)
		return
	}

	event.Timestamp = time.Now().UTC()

	for _, group := range groups {
		invalidate(ctx, group)

		if signal == nil {
			continue
		}
		event.Group = group
		if err := signal.Publish(ctx, GroupChannel(group), event); err != nil {
			slog.ErrorContext(
				ctx, "failed to publish change event",
				slog.String("error", err.Error()),
				slog.String("module", "usecase"),
			)
		}
	}
}
