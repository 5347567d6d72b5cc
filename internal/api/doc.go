// Package api implements the HTTP REST API and WebSocket server for
// PrintHive - the API worker of the event-routing core.
//
// This package provides:
//   - REST endpoints for login, users, printer settings, connection
//     control, terminal commands, and print job markers
//   - WebSocket hub for real-time state and terminal broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between remote clients and the event router.
// Commands flow from REST handlers into the distribution queue as bridge
// events; everything the router mirrors outward arrives on the
// websocket-outbound queue, which the server's relay goroutine drains
// and broadcasts to connected WebSocket clients (and any configured
// integration sinks, e.g. MQTT and InfluxDB).
//
// The server never inspects or mutates connection state - the router is
// the single owner of that belief. Clients learn about connection health
// exclusively through the broadcast state updates.
//
// # Security
//
// Login verifies credentials against the user store and issues a JWT
// whose ID (jti) is persisted in the tokens table, making tokens
// revocable: logout deletes the row and the token dies with it.
// WebSocket connections use single-use tickets to keep tokens out of
// URLs.
package api
