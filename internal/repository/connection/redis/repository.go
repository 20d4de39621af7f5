package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tandem/server/internal/repository/connection"
)

const fanoutChannel = "tandem:fanout"

type iLocalRepo interface {
	Add(ctx context.Context, roomId string, conn connection.Conn) error
	Remove(ctx context.Context, roomId, connId string) error
	Deliver(ctx context.Context, roomId string, frame []byte, excludeConnId string)
}

type envelope struct {
	RoomId        string          `json:"room_id"`
	ExcludeConnId string          `json:"exclude_conn_id,omitempty"`
	Frame         json.RawMessage `json:"frame"`
}

// repo relays published frames through a Redis channel so that every
// instance delivers them to its own local groups.
type repo struct {
	rc     *redis.Client
	local  iLocalRepo
	pubsub *redis.PubSub
	logger *slog.Logger
}

// NewRepo subscribes to the fanout channel and returns once the subscription
// is confirmed.
func NewRepo(ctx context.Context, rc *redis.Client, local iLocalRepo, logger *slog.Logger) (*repo, error) {
	pubsub := rc.Subscribe(ctx, fanoutChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", fanoutChannel, err)
	}

	return &repo{
		rc:     rc,
		local:  local,
		pubsub: pubsub,
		logger: logger,
	}, nil
}

func (r *repo) Add(ctx context.Context, roomId string, conn connection.Conn) error {
	return r.local.Add(ctx, roomId, conn)
}

func (r *repo) Remove(ctx context.Context, roomId, connId string) error {
	return r.local.Remove(ctx, roomId, connId)
}

func (r *repo) Publish(ctx context.Context, params *connection.PublishParams) error {
	frame, err := json.Marshal(params.Frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	data, err := json.Marshal(envelope{
		RoomId:        params.RoomId,
		ExcludeConnId: params.ExcludeConnId,
		Frame:         frame,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := r.rc.Publish(ctx, fanoutChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}

	return nil
}

// Run delivers frames received from the channel until ctx is done or the
// subscription is closed.
func (r *repo) Run(ctx context.Context) error {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.WarnContext(ctx, "failed to decode fanout envelope", "error", err)
				continue
			}

			r.local.Deliver(ctx, env.RoomId, env.Frame, env.ExcludeConnId)
		}
	}
}

func (r *repo) Close() error {
	return r.pubsub.Close()
}
