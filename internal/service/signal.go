package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/oakmere/adviserdesk"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event adviserdesk.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime streams change events for the channels arriving on input until
// the context is cancelled or input closes.
func (s *SignalService) Realtime(ctx context.Context, input chan []string, output chan adviserdesk.Event) {

	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case channels, ok := <-input:
			if !ok {
				return
			}
			if err := pubsub.Subscribe(ctx, channels...); err != nil {
				slog.ErrorContext(
					ctx, "failed to subscribe",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event adviserdesk.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "failed to decode change event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
