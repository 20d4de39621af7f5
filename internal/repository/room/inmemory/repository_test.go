package inmemory

import (
	"log/slog"
	"testing"

	"github.com/tandem/server/internal/repository/room/roomtest"
)

func TestRepo(t *testing.T) {
	roomtest.Run(t, func(t *testing.T) roomtest.Repo {
		return NewRepo(slog.Default())
	})
}
