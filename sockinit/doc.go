// Package sockinit is the core of the sockinit supervisor, a minimal
// process supervisor that starts services on demand using socket
// activation.
//
// Mechanism of Operation
//
// The supervisor owns the listening unix domain socket of every registered
// service. No service process exists until a client attempts to connect to
// one of those sockets: each socket is armed with a one-shot readiness
// watcher, and the first readable event hands the bound, listening
// descriptor to a freshly spawned instance of the service binary.
//
// The handoff contract is a single reserved environment variable, INIT_FD,
// carrying the decimal descriptor number of the inherited listener. Before
// the spawn, the descriptor has its close-on-exec flag cleared so it
// survives the exec, and its non-blocking mode cleared so the child sees
// exactly what it would have seen had it bound the socket itself. The
// service reads and unsets the variable once at startup; if the variable is
// absent or malformed, the service binds its own socket at the well-known
// path instead, so every service binary also runs standalone.
//
// Activation is deliberately one-shot: a socket moves through the states
// Unbound, Bound, Armed and Fired, and Fired is terminal. Once a service
// has been activated, later connections on its socket are that service's
// own responsibility. The supervisor keeps a process table of spawned
// children and reaps their exits, but it does not restart them; the table
// exists so a restart policy has something to build on.
package sockinit
