package shell

import (
	"testing"

	"github.com/enesbrtc/enes.codes/internal/kernel"
)

func TestDefaults(t *testing.T) {
	c := New()
	want := Snapshot{Context: ContextLocal, Flavor: FlavorLocal, Machine: MachineIdle}
	if got := c.Snapshot(); got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestSettersNotifyOnChangeOnly(t *testing.T) {
	c := New()
	var seen []Snapshot
	unsubscribe := c.Subscribe(func(s Snapshot) { seen = append(seen, s) })
	defer unsubscribe()

	c.SetContext(ContextEngineer)
	c.SetContext(ContextEngineer)
	c.SetMachine(MachineEngineer)
	c.SetFlavor(FlavorSSHAuth)

	if len(seen) != 3 {
		t.Fatalf("notifications = %d, want 3", len(seen))
	}
	want := Snapshot{Context: ContextEngineer, Flavor: FlavorSSHAuth, Machine: MachineEngineer}
	if got := seen[len(seen)-1]; got != want {
		t.Fatalf("last snapshot = %+v, want %+v", got, want)
	}
	if c.Context() != ContextEngineer || c.Flavor() != FlavorSSHAuth || c.Machine() != MachineEngineer {
		t.Fatalf("getters disagree with snapshot: %+v", c.Snapshot())
	}

	c.Reset()
	if got := c.Snapshot(); got != (Snapshot{Context: ContextLocal, Flavor: FlavorLocal, Machine: MachineIdle}) {
		t.Fatalf("Snapshot() after Reset() = %+v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	c := New()
	calls := 0
	unsubscribe := c.Subscribe(func(Snapshot) { calls++ })
	unsubscribe()
	c.SetContext(ContextSSH)
	if calls != 0 {
		t.Fatalf("listener called %d times after unsubscribe", calls)
	}
}

func TestContextEnvironment(t *testing.T) {
	tests := map[Context]kernel.Environment{
		ContextLocal:    kernel.EnvLocal,
		ContextEngineer: kernel.EnvEngineer,
		ContextSSH:      kernel.EnvSSH,
		"":              kernel.EnvLocal,
	}
	for ctx, want := range tests {
		if got := ctx.Environment(); got != want {
			t.Fatalf("%q.Environment() = %q, want %q", ctx, got, want)
		}
	}
}
