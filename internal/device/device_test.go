package device

import (
	"context"
	"testing"

	"github.com/openfleet/fleetgate/store"
)

func TestEnsureIDStableAcrossCalls(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir(), []byte("test-passphrase"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	first, err := EnsureID(ctx, st)
	if err != nil {
		t.Fatalf("EnsureID failed: %v", err)
	}
	if first == "" {
		t.Fatal("EnsureID returned an empty id")
	}

	second, err := EnsureID(ctx, st)
	if err != nil {
		t.Fatalf("second EnsureID failed: %v", err)
	}
	if second != first {
		t.Fatalf("device id changed between calls: %q vs %q", first, second)
	}
}
