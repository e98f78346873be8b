// Package engine answers chat messages with event store operations.
//
// A message such as "/get -type gym" goes through three steps:
//
//  1. The compiler turns the command text into an ir.Request, or a
//     structural error the user is shown as-is.
//  2. The request runs on the user's executor: the remote event store the
//     user configured with /config, else the local store.
//  3. The result becomes a short reply (created id, found events, affected
//     count).
//
// Transports hand messages to Enqueue; a single Run loop handles them in
// arrival order and passes replies to the Replier. Every handled message
// gets a request id (UUIDv7) and one log record carrying it.
//
// /help and /start print usage, and unknown commands are answered with the
// closest known ones.
package engine
