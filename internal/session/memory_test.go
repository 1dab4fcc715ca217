package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendRead_Order(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{SessionID: "s1", ConversationID: "c1"}

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, key, []Turn{
			{Role: RoleUser, Content: fmt.Sprintf("question %d", i)},
			{Role: RoleAssistant, Content: fmt.Sprintf("answer %d", i)},
		})
		require.NoError(t, err)
	}

	turns, err := store.Read(ctx, key, 100)
	require.NoError(t, err)
	require.Len(t, turns, 10)

	// Insertion order preserved
	assert.Equal(t, "question 0", turns[0].Content)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "answer 4", turns[9].Content)
	assert.Equal(t, RoleAssistant, turns[9].Role)
}

func TestMemoryStore_Read_Limit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{SessionID: "s1", ConversationID: "c1"}

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, store.Append(ctx, key, []Turn{{Role: RoleUser, Content: content}}))
	}

	// Most recent 2, oldest first
	turns, err := store.Read(ctx, key, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].Content)
	assert.Equal(t, "third", turns[1].Content)
}

func TestMemoryStore_Read_UnknownKey(t *testing.T) {
	store := NewMemoryStore()

	turns, err := store.Read(context.Background(), Key{SessionID: "nope", ConversationID: "nope"}, 50)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{SessionID: "s1", ConversationID: "c1"}

	require.NoError(t, store.Append(ctx, key, []Turn{{Role: RoleUser, Content: "hello"}}))
	require.NoError(t, store.Delete(ctx, key))

	turns, err := store.Read(ctx, key, 50)
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Deleting again is not an error
	require.NoError(t, store.Delete(ctx, key))
}

func TestMemoryStore_Read_CopyIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{SessionID: "s1", ConversationID: "c1"}

	require.NoError(t, store.Append(ctx, key, []Turn{{Role: RoleUser, Content: "original"}}))

	turns, err := store.Read(ctx, key, 0)
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := store.Read(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

// TestMemoryStore_DistinctKeysDoNotBlock holds the lock of one key's entry
// while appending to another key. If appends serialized on a global lock the
// second append could not finish while the first entry is held.
func TestMemoryStore_DistinctKeysDoNotBlock(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	keyA := Key{SessionID: "s1", ConversationID: "a"}
	keyB := Key{SessionID: "s1", ConversationID: "b"}

	require.NoError(t, store.Append(ctx, keyA, []Turn{{Role: RoleUser, Content: "seed"}}))

	// Hold keyA's entry lock
	entryA := store.getOrCreate(keyA)
	entryA.mu.Lock()
	defer entryA.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- store.Append(ctx, keyB, []Turn{{Role: RoleUser, Content: "independent"}})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("append to a distinct key blocked behind an unrelated key's lock")
	}
}

func TestMemoryStore_ConcurrentAppends_SameKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{SessionID: "s1", ConversationID: "c1"}

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// A user/assistant pair per append; pairs must never interleave
				err := store.Append(ctx, key, []Turn{
					{Role: RoleUser, Content: fmt.Sprintf("w%d-q%d", w, i)},
					{Role: RoleAssistant, Content: fmt.Sprintf("w%d-a%d", w, i)},
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	turns, err := store.Read(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, turns, writers*perWriter*2)

	// Every append was atomic: turns alternate user/assistant in pairs
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, RoleUser, turns[i].Role, "turn %d", i)
		assert.Equal(t, RoleAssistant, turns[i+1].Role, "turn %d", i+1)
	}
}
