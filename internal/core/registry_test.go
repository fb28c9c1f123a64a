package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add_And_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := uuid.NewString()

	// Given an empty registry
	req.Zero(registry.Len())

	// When a connection is added
	client, err := registry.Add(id, "10.0.0.1:4000", newFakeConn("10.0.0.1:4000"), time.Now())

	// Then it is unregistered and reachable by handle
	req.NoError(err)
	req.False(client.Registered())
	got, ok := registry.Get(id)
	req.True(ok)
	req.Same(client, got)

	// And adding it again fails
	_, err = registry.Add(id, "10.0.0.1:4000", newFakeConn("10.0.0.1:4000"), time.Now())
	req.ErrorIs(err, ErrDuplicateHandle)

	// When it is removed
	removed, err := registry.Remove(id)
	req.NoError(err)
	req.Same(client, removed)

	// Then removing it again is reported
	_, err = registry.Remove(id)
	req.ErrorIs(err, ErrNotFound)
	req.Zero(registry.Len())
}

func TestRegistry_SetNickname(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, second := uuid.NewString(), uuid.NewString()
	_, err := registry.Add(first, "a", newFakeConn("a"), time.Now())
	req.NoError(err)
	_, err = registry.Add(second, "b", newFakeConn("b"), time.Now())
	req.NoError(err)

	// When the first connection registers
	req.NoError(registry.SetNickname(first, "alice"))

	// Then the nickname resolves to it
	id, ok := registry.FindByNickname("alice")
	req.True(ok)
	req.Equal(first, id)

	// And nobody else can take it
	req.ErrorIs(registry.SetNickname(second, "alice"), ErrNicknameTaken)

	// And the first connection cannot register again
	req.ErrorIs(registry.SetNickname(first, "other"), ErrAlreadyRegistered)
	client, _ := registry.Get(first)
	req.Equal("alice", client.Nickname)

	// And unknown handles are a logic error
	req.ErrorIs(registry.SetNickname("missing", "x"), ErrNotFound)
}

func TestRegistry_RenameNickname(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, second := uuid.NewString(), uuid.NewString()
	_, _ = registry.Add(first, "a", newFakeConn("a"), time.Now())
	_, _ = registry.Add(second, "b", newFakeConn("b"), time.Now())

	// Given an unregistered connection, rename fails
	_, err := registry.RenameNickname(first, "alice")
	req.ErrorIs(err, ErrNotRegistered)

	req.NoError(registry.SetNickname(first, "alice"))
	req.NoError(registry.SetNickname(second, "bob"))

	// When renaming to a nickname held by someone else
	_, err = registry.RenameNickname(first, "bob")
	req.ErrorIs(err, ErrNicknameTaken)

	// When renaming to a free nickname
	old, err := registry.RenameNickname(first, "ally")
	req.NoError(err)
	req.Equal("alice", old)

	// Then the index follows the rename
	_, ok := registry.FindByNickname("alice")
	req.False(ok)
	id, ok := registry.FindByNickname("ally")
	req.True(ok)
	req.Equal(first, id)

	// And renaming to the current nickname is allowed
	old, err = registry.RenameNickname(first, "ally")
	req.NoError(err)
	req.Equal("ally", old)
	id, ok = registry.FindByNickname("ally")
	req.True(ok)
	req.Equal(first, id)
}

func TestRegistry_Remove_Releases_Nickname(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, second := uuid.NewString(), uuid.NewString()
	_, _ = registry.Add(first, "a", newFakeConn("a"), time.Now())
	req.NoError(registry.SetNickname(first, "alice"))

	_, err := registry.Remove(first)
	req.NoError(err)

	_, ok := registry.FindByNickname("alice")
	req.False(ok)

	_, _ = registry.Add(second, "b", newFakeConn("b"), time.Now())
	req.NoError(registry.SetNickname(second, "alice"))
}

func TestRegistry_Snapshot_Is_Ordered_Copy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, _ = registry.Add("late", "b", newFakeConn("b"), base.Add(time.Minute))
	_, _ = registry.Add("early", "a", newFakeConn("a"), base)
	req.NoError(registry.SetNickname("late", "bob"))

	infos := registry.Snapshot()
	req.Len(infos, 2)
	req.Equal("early", infos[0].ID)
	req.False(infos[0].Registered)
	req.Equal("late", infos[1].ID)
	req.Equal("bob", infos[1].Nickname)
	req.True(infos[1].Registered)

	// Mutating the copy does not touch the registry
	infos[1].Nickname = "mallory"
	client, _ := registry.Get("late")
	req.Equal("bob", client.Nickname)
}
