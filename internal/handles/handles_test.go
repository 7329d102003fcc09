package handles

import (
	"sync"
	"testing"
)

func TestRegisterAndLookup(t *testing.T) {
	tok := Register(7)
	defer Unregister(tok)

	if tok == 0 {
		t.Error("Register should return a non-zero token")
	}

	id, ok := Lookup(tok)
	if !ok {
		t.Fatal("Lookup should find a registered token")
	}
	if id != 7 {
		t.Errorf("Lookup = %d, want 7", id)
	}
}

func TestUnregister(t *testing.T) {
	before := Count()
	tok := Register(3)

	if _, ok := Lookup(tok); !ok {
		t.Error("expected the token before Unregister")
	}
	if got := Count(); got != before+1 {
		t.Errorf("Count = %d, want %d", got, before+1)
	}

	Unregister(tok)

	if _, ok := Lookup(tok); ok {
		t.Error("expected the token to be gone after Unregister")
	}
	if got := Count(); got != before {
		t.Errorf("Count after Unregister = %d, want %d", got, before)
	}
}

func TestLookupUnknownToken(t *testing.T) {
	if id, ok := Lookup(999999); ok {
		t.Errorf("Lookup of an unknown token = (%d, true), want (_, false)", id)
	}
	// Context id zero is a legal registered value, distinguishable from
	// absence only through the second result.
	tok := Register(0)
	defer Unregister(tok)
	if id, ok := Lookup(tok); !ok || id != 0 {
		t.Errorf("Lookup = (%d, %v), want (0, true)", id, ok)
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	const goroutines = 100
	const ops = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				tok := Register(id)
				got, ok := Lookup(tok)
				if !ok || got != id {
					t.Errorf("Lookup(%d) = (%d, %v), want (%d, true)", tok, got, ok, id)
				}
				Unregister(tok)
			}
		}(i)
	}

	wg.Wait()
}

func TestTokensAreUnique(t *testing.T) {
	seen := make(map[uintptr]bool)

	for i := 0; i < 1000; i++ {
		tok := Register(i)
		if seen[tok] {
			t.Errorf("token %d was returned twice", tok)
		}
		seen[tok] = true
	}

	for tok := range seen {
		Unregister(tok)
	}
}
