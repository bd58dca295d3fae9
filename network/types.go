package network

import (
	"bufio"
	"net"

	"kasa/store"
)

//
// BANK SERVER
//

// BankServer accepts client connections and runs one Session per connection.
type BankServer struct {
	port  int
	store *store.AccountStore
}

// Session is the per-connection protocol state machine. It starts
// unauthenticated and terminates when the connection closes.
type Session struct {
	// id tags this session's log lines.
	id string

	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	store  *store.AccountStore

	// login of the authenticated account; empty while unauthenticated.
	login string
}

//
// INTERACTIVE CLIENT
//

// InteractiveClient is the manual console harness: it forwards typed lines to
// the server and prints received lines as they arrive.
type InteractiveClient struct {
	serverAddr string
	port       int
}
