// Package protocol owns the fleet protocol wire contract.
//
// Ownership boundary:
// - message envelope and TLV field primitives
// - register/register.ack/status/command message schemas
// - registration reject reasons
package protocol
