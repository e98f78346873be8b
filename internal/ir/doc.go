// Package ir provides the typed values exchanged between the command
// compiler, the event store clients and the chat engine.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Literal is a sealed tagged union; consumers switch on the concrete type
//   - Map iteration for output always goes through SortedKeys
//   - All JSON tags use camelCase to match the event store wire format
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
package ir
