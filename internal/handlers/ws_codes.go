// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the session handler. These give
// clients a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError   = 3000 // client connected with an unsupported subprotocol
	InvalidAuthTokenError = 3001 // guest token was invalid or could not be issued
)
