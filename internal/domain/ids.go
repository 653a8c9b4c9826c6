// Package domain contains entity without logic, just meta-data
package domain

// RoomID identifies a meeting room. Configured out-of-band, small and stable.
type RoomID int

// BoothID identifies an interpreter booth. Configured out-of-band.
type BoothID int

// ClientID is the transport-assigned identity of one connected client.
// Transient: it exists only while the connection is up.
type ClientID string

// CallID is a server-issued correlation handle for one call leg inside a
// booth. Unique per booth at any instant, not across history.
type CallID string
