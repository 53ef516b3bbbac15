package device

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openfleet/fleetgate/store"
)

// EnsureID returns the installation's durable device ID, generating
// and persisting a fresh UUID on first use. The ID is not a secret; it only
// labels this installation in backend logs and audit events.
func EnsureID(ctx context.Context, s store.Store) (string, error) {
	id, err := s.Get(ctx, store.KeyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := s.Set(ctx, store.KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
