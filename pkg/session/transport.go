package session

import "net/http"

// Transport moves the session id between client and server.
type Transport interface {
	// ReadID returns the verified id carried by the request. A false result
	// means the request has no usable session.
	ReadID(r *http.Request) (string, bool)

	// WriteID attaches id to the response.
	WriteID(w http.ResponseWriter, id string) error

	// ClearID tells the client to drop its id.
	ClearID(w http.ResponseWriter)
}
