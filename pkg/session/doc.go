// Package session serializes access to per-conversation state, locally
// via reference-counted locks and optionally across replicas via a
// distributed locker.
package session
