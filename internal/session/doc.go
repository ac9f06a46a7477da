// Package session owns the device<->gateway session state machine.
//
// Ownership boundary:
// - registration handshake
// - status/command exchange with the single-retry reconnect policy
// - session lifecycle (Uninitialized -> Connected -> Destroyed)
// - reliability config and caller-side recreate backoff
package session
