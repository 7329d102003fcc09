//go:build !ios && !android && (amd64 || arm64)

package projgo

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/projgo/projgo/internal/handles"
)

func TestLoggerDefaultAndSet(t *testing.T) {
	defer SetLogger(nil)

	if Logger() == nil {
		t.Fatal("Logger should never return nil")
	}

	l := zap.NewNop()
	SetLogger(l)
	if Logger() != l {
		t.Error("Logger should return the configured logger")
	}

	SetLogger(nil)
	if Logger() == nil {
		t.Error("SetLogger(nil) should restore a usable default")
	}
}

func TestLoggerConcurrentSet(t *testing.T) {
	defer SetLogger(nil)

	var wg sync.WaitGroup
	wg.Add(16)
	for i := 0; i < 16; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i%2 == 0 {
					SetLogger(zap.NewNop())
				} else if Logger() == nil {
					t.Error("Logger returned nil during concurrent SetLogger")
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGoMessage(t *testing.T) {
	if got := goMessage(nil); got != "" {
		t.Errorf("goMessage(nil) = %q, want empty", got)
	}

	buf := append([]byte("proj_create: unknown projection"), 0)
	if got := goMessage(&buf[0]); got != "proj_create: unknown projection" {
		t.Errorf("goMessage = %q", got)
	}

	empty := []byte{0}
	if got := goMessage(&empty[0]); got != "" {
		t.Errorf("goMessage of empty string = %q", got)
	}

	// An unterminated message is cut off rather than read past its buffer.
	long := make([]byte, 8192)
	for i := range long {
		long[i] = 'x'
	}
	if got := goMessage(&long[0]); len(got) > 4200 {
		t.Errorf("unterminated message not bounded: %d bytes", len(got))
	}
}

func TestNativeLogTrampoline(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	tok := handles.Register(7)
	defer handles.Unregister(tok)

	msg := append([]byte("pj_open_lib(proj.db): call fopen"), 0)
	nativeLogTrampoline(purego.CDecl{}, unsafe.Pointer(tok), 1, &msg[0])

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zap.ErrorLevel {
		t.Errorf("level = %v, want error", e.Level)
	}
	if want := "proj: pj_open_lib(proj.db): call fopen"; e.Message != want {
		t.Errorf("message = %q, want %q", e.Message, want)
	}
	found := false
	for _, f := range e.Context {
		if f.Key == "context" && f.Integer == 7 {
			found = true
		}
	}
	if !found {
		t.Error("log entry is missing the context id field")
	}
}

func TestNativeLogTrampolineUnknownToken(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	msg := append([]byte("stray message"), 0)
	nativeLogTrampoline(purego.CDecl{}, nil, 2, &msg[0])

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	if entries[0].Level != zap.DebugLevel {
		t.Errorf("level = %v, want debug", entries[0].Level)
	}
}
