package controller

import (
	"context"
	"sync"

	"github.com/tandem/server/pkg/wsconn"
)

type activeClients struct {
	mu      sync.Mutex
	clients map[*wsconn.Client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func newActiveClients() *activeClients {
	return &activeClients{
		clients: make(map[*wsconn.Client]struct{}),
	}
}

// add reports false once terminateAll has been called.
func (a *activeClients) add(client *wsconn.Client) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false
	}
	a.clients[client] = struct{}{}
	a.wg.Add(1)

	return true
}

func (a *activeClients) remove(client *wsconn.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.clients[client]; !ok {
		return
	}
	delete(a.clients, client)
	a.wg.Done()
}

func (a *activeClients) terminateAll() {
	a.mu.Lock()
	a.closed = true
	clients := make([]*wsconn.Client, 0, len(a.clients))
	for client := range a.clients {
		clients = append(clients, client)
	}
	a.mu.Unlock()

	for _, client := range clients {
		client.Terminate()
	}
}

func (a *activeClients) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
