package core

import (
	"fmt"
	"sort"
	"time"
)

// Registry maps handles to clients and nicknames to handles. It is owned by
// the hub goroutine and is not safe for concurrent use.
type Registry struct {
	clients map[string]*Client
	byNick  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		byNick:  make(map[string]string),
	}
}

// Add inserts an unregistered client for id.
func (r *Registry) Add(id, remoteAddr string, t Transport, connectedAt time.Time) (*Client, error) {
	if _, exists := r.clients[id]; exists {
		return nil, fmt.Errorf("add %s: %w", id, ErrDuplicateHandle)
	}
	c := &Client{
		ID:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: connectedAt,
		transport:   t,
	}
	r.clients[id] = c
	return c, nil
}

// Remove deletes the client for id together with its nickname binding.
func (r *Registry) Remove(id string) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if c.Registered() {
		delete(r.byNick, c.Nickname)
	}
	delete(r.clients, id)
	return c, nil
}

// Get returns the client for id.
func (r *Registry) Get(id string) (*Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

// SetNickname binds a first nickname to id.
func (r *Registry) SetNickname(id, nick string) error {
	c, ok := r.clients[id]
	if !ok {
		return fmt.Errorf("set nickname %s: %w", id, ErrNotFound)
	}
	if c.Registered() {
		return ErrAlreadyRegistered
	}
	if _, taken := r.byNick[nick]; taken {
		return ErrNicknameTaken
	}
	c.Nickname = nick
	r.byNick[nick] = id
	return nil
}

// RenameNickname rebinds a registered client and returns the previous nickname.
// Renaming to the nickname the client already holds succeeds.
func (r *Registry) RenameNickname(id, nick string) (string, error) {
	c, ok := r.clients[id]
	if !ok {
		return "", fmt.Errorf("rename nickname %s: %w", id, ErrNotFound)
	}
	if !c.Registered() {
		return "", ErrNotRegistered
	}
	if owner, taken := r.byNick[nick]; taken && owner != id {
		return "", ErrNicknameTaken
	}
	old := c.Nickname
	delete(r.byNick, old)
	c.Nickname = nick
	r.byNick[nick] = id
	return old, nil
}

// FindByNickname returns the handle holding nick.
func (r *Registry) FindByNickname(nick string) (string, bool) {
	id, ok := r.byNick[nick]
	return id, ok
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	return len(r.clients)
}

// ClientInfo is a read-only copy of a registry entry.
type ClientInfo struct {
	ID          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	Nickname    string    `json:"nickname,omitempty"`
	Registered  bool      `json:"registered"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Snapshot copies every entry, oldest connection first.
func (r *Registry) Snapshot() []ClientInfo {
	out := make([]ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, ClientInfo{
			ID:          c.ID,
			RemoteAddr:  c.RemoteAddr,
			Nickname:    c.Nickname,
			Registered:  c.Registered(),
			ConnectedAt: c.ConnectedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}
