// Package harness runs chat scenarios against a real engine and store.
//
// A scenario is a YAML file listing messages to send, with optional
// expectations on each reply, followed by assertions on the final store:
//
//	name: gym-week
//	description: create and query gym sessions
//	now: 2025-01-15T10:00:00Z
//	user: alice
//	steps:
//	  - send: /create -t Legs -type gym
//	    expect:
//	      reply: Created evt-1.
//	  - advance: 24h
//	  - send: /get -type gym
//	    expect:
//	      ids: [evt-1]
//	      request:
//	        target: {type: gym}
//	assertions:
//	  - type: event_count
//	    count: 1
//
// Each scenario gets a fresh in-memory SQLite store, a fixed clock that only
// moves on "advance" steps, and sequential ids (evt-1, req-1, ...), so the
// trace of a run is byte-for-byte reproducible and can be kept as a golden
// file. Remote event stores configured with /config are never contacted;
// requests routed to one fail.
package harness
