// Package handles hands out opaque tokens that stand in for pooled context
// ids in native memory.
//
// PROJ's per-context log callback carries an opaque app_data pointer. Go
// pointers must not be stored in native memory, so the bridge registers the
// owning context's id here and passes the resulting token as app_data
// instead. A token stays valid until Unregister.
package handles

import (
	"sync"
)

var (
	mu        sync.RWMutex
	tokens    = make(map[uintptr]int)
	nextToken uintptr = 1
)

// Register stores a context id and returns the token to hand to native
// code. Tokens are never zero and never reused.
func Register(contextID int) uintptr {
	mu.Lock()
	defer mu.Unlock()
	tok := nextToken
	nextToken++
	tokens[tok] = contextID
	return tok
}

// Lookup resolves a token back to its context id. The second result is
// false for tokens that were never registered or already unregistered.
func Lookup(tok uintptr) (int, bool) {
	mu.RLock()
	defer mu.RUnlock()
	id, ok := tokens[tok]
	return id, ok
}

// Unregister invalidates a token. Call once the native side can no longer
// invoke the callback carrying it.
func Unregister(tok uintptr) {
	mu.Lock()
	defer mu.Unlock()
	delete(tokens, tok)
}

// Count returns the number of live tokens. Used by leak checks in tests.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(tokens)
}
