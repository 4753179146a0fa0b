// Package localauth implements a fully client-side identity provider:
// password hashing, self-contained bearer tokens, user records persisted to
// a durable key-value store, and the session/state machinery that consumes
// them. There is no server and no network boundary; the trust model is
// same-origin possession of the storage.
//
// Tokens:
//   - Tokens are unsigned base64 payloads carrying subject, kind, and expiry.
//     Anyone with access to the storage can forge one. That is an accepted
//     property of this design, not an oversight; a networked deployment must
//     introduce a server-held signing key before reusing the codec.
//
// Storage:
//   - Storage is a three-namespace key-value layout (users, current user,
//     token pair). MemoryStorage covers tests and ephemeral sessions,
//     BunStorage persists through Bun over sqlite, RedisStorage targets a
//     redis instance.
//
// State machine:
//   - AuthStateMachine exposes idle/loading/authenticated/unauthenticated
//     plus the current public user and last error message. Presentation
//     collaborators subscribe via OnChange; they never mutate session state
//     directly.
package localauth
