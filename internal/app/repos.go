package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tandem/server/internal/repository/connection"
	connInmemory "github.com/tandem/server/internal/repository/connection/inmemory"
	connRedis "github.com/tandem/server/internal/repository/connection/redis"
	"github.com/tandem/server/internal/repository/presence"
	presenceInmemory "github.com/tandem/server/internal/repository/presence/inmemory"
	presenceRedis "github.com/tandem/server/internal/repository/presence/redis"
	roomRepo "github.com/tandem/server/internal/repository/room"
	roomInmemory "github.com/tandem/server/internal/repository/room/inmemory"
	roomPostgres "github.com/tandem/server/internal/repository/room/postgres"
	roomRedis "github.com/tandem/server/internal/repository/room/redis"
	"github.com/tandem/server/pkg/pgclient"
	"github.com/tandem/server/pkg/redisclient"
)

type iRoomRepo interface {
	CreateRoom(context.Context, *roomRepo.CreateRoomParams) error
	GetRoom(context.Context, string) (roomRepo.Room, error)
	IsRoomExists(context.Context, string) (bool, error)
	GetRoomState(context.Context, string) (roomRepo.RoomState, error)
	UpdateRoomState(context.Context, *roomRepo.UpdateRoomStateParams) error
	GetVideoURL(context.Context, string) (string, error)
	UpdateVideoURL(context.Context, *roomRepo.UpdateVideoURLParams) error
	AddChatMessage(context.Context, *roomRepo.AddChatMessageParams) (roomRepo.ChatMessage, error)
	GetRecentChatMessages(context.Context, *roomRepo.GetRecentChatMessagesParams) ([]roomRepo.ChatMessage, error)
}

type iPresenceRepo interface {
	Upsert(context.Context, *presence.UpsertParams) error
	Remove(ctx context.Context, roomId, connId string) (bool, error)
	ListUsernames(ctx context.Context, roomId string) ([]string, error)
}

type iConnRepo interface {
	Add(ctx context.Context, roomId string, conn connection.Conn) error
	Remove(ctx context.Context, roomId, connId string) error
	Publish(context.Context, *connection.PublishParams) error
}

type repos struct {
	roomRepo     iRoomRepo
	presenceRepo iPresenceRepo
	connRepo     iConnRepo
}

func (s *server) buildRepos(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (repos, error) {
	var rc *redis.Client
	if cfg.Store == StoreRedis || cfg.Backplane == BackplaneRedis {
		var err error
		rc, err = redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return repos{}, fmt.Errorf("failed to create redis client: %w", err)
		}
		s.closers = append(s.closers, func() { rc.Close() })
	}

	var res repos

	switch cfg.Store {
	case StoreRedis:
		res.roomRepo = roomRedis.NewRepo(rc, cfg.RoomTTL, logger)
	case StorePostgres:
		pool, err := pgclient.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return repos{}, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		repo := roomPostgres.NewRepo(pool, logger)
		if err := repo.Migrate(ctx); err != nil {
			return repos{}, err
		}
		res.roomRepo = repo
	default:
		res.roomRepo = roomInmemory.NewRepo(logger)
	}

	localConnRepo := connInmemory.NewRepo(logger)
	if cfg.Backplane == BackplaneRedis {
		res.presenceRepo = presenceRedis.NewRepo(rc, cfg.RoomTTL, logger)

		backplane, err := connRedis.NewRepo(ctx, rc, localConnRepo, logger)
		if err != nil {
			return repos{}, fmt.Errorf("failed to create fanout backplane: %w", err)
		}
		s.closers = append(s.closers, func() { backplane.Close() })
		s.backplane = backplane
		res.connRepo = backplane
	} else {
		res.presenceRepo = presenceInmemory.NewRepo(logger)
		res.connRepo = localConnRepo
	}

	return res, nil
}
