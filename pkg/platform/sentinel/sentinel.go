package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and upstream adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entry does not exist in the store
//   - ErrExpired: entry exists but is past its TTL
//   - ErrUnavailable: upstream or store temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
