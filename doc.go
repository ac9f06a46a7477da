// Package internalclient is the device-side client for the fleet internal
// protocol. A Client registers one device with a module gateway and then
// exchanges status reports for commands over a persistent connection.
//
// A Client instance is single-threaded: callers serialize operations. Any
// error returned by Connect after a session was established, or by
// SendStatus, means the instance is destroyed and a fresh one must be built.
package internalclient
