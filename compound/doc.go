// Package compound implements a small composition engine. A Host acquires
// behaviour at runtime from capability modules, as if each module had been
// mixed directly into it, while every module keeps its own state and private
// helpers out of reach of the others:
//   - A Module is a named, mutable table of public and private operations.
//   - Attaching a Module to a Host creates a Part that owns the module's ivars
//     and typed state for that host only.
//   - Calls on the Host resolve against the host's native operations first and
//     then against the most recently attached Part exposing the name publicly.
//   - Calls a Part cannot satisfy itself are forwarded back to its Host, so
//     modules reach each other's public operations but never private ones.
//   - The Host reports itself as an instance of every attached module.
//
// Everything is synchronous and single-owner. A Host is not safe for
// concurrent use; callers sharing one across goroutines must serialize access.
package compound
