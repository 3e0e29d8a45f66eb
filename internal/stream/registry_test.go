package stream

import (
	"testing"
	"time"

	"github.com/aiist007/JSpeak/internal/command"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry(0)
	defer r.Close()

	sess := NewSession("a", testConfig(), &scriptedEngine{}, command.NewInterpreter())
	r.Put(sess)

	if got, ok := r.Get("a"); !ok || got != sess {
		t.Fatal("Expected to get back the registered session")
	}
	if r.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", r.Count())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Expected miss for unknown id")
	}

	removed, ok := r.Remove("a")
	if !ok || removed != sess {
		t.Fatal("Expected to remove the session")
	}
	if _, ok := r.Remove("a"); ok {
		t.Error("Expected second remove to miss")
	}
	if r.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Count())
	}
}

func TestRegistry_SweepRemovesIdleSessions(t *testing.T) {
	r := NewRegistry(0) // sweep invoked directly, no background loop
	defer r.Close()
	r.idleTTL = time.Minute

	idle := NewSession("idle", testConfig(), &scriptedEngine{}, command.NewInterpreter())
	idle.lastActivity = time.Now().Add(-time.Hour)
	fresh := NewSession("fresh", testConfig(), &scriptedEngine{}, command.NewInterpreter())
	r.Put(idle)
	r.Put(fresh)

	r.sweep()

	if _, ok := r.Get("idle"); ok {
		t.Error("Expected idle session to be swept")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("Expected fresh session to survive")
	}
}
