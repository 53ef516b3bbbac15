package store

import (
	"context"
	"errors"
)

// Keys written by the session core. Only the session manager writes KeyToken
// and KeyUser; only the account-settings path writes KeyBiometricEnabled.
const (
	KeyToken            = "token"
	KeyUser             = "user"
	KeyBiometricEnabled = "biometric-enabled"
	KeyDeviceID         = "device-id"
)

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("store: key not found")

// ErrCorruptValue is returned when a stored value exists but cannot be
// decrypted or decoded.
var ErrCorruptValue = errors.New("store: corrupt value")

// Store is durable string key/value persistence surviving process restarts.
// Delete is idempotent: deleting an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
