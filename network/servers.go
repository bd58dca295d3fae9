package network

import (
	"bufio"
	"fmt"
	"log"
	"net"

	"github.com/google/uuid"

	"kasa/store"
)

// New.
func (s *BankServer) New(store *store.AccountStore, port int) *BankServer {
	if port == 0 {
		port = BankPort
	}
	s.port = port
	s.store = store
	return s
}

// Start listens on the configured port and serves until the listener fails.
func (s *BankServer) Start() error {
	// Start listening.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		log.Printf("failed to start Bank server: %v", err)
		return err
	}

	log.Printf("Bank server listening on port %d", s.port)

	return s.Serve(listener)
}

// Serve accepts connections from listener, one goroutine per connection,
// with no admission limit.
func (s *BankServer) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("failed to accept connection: %v", err)
			return err
		}
		go s.handleClient(conn)
	}
}

// handleClient.
func (s *BankServer) handleClient(conn net.Conn) {
	// Close connection when finished.
	defer conn.Close()

	session := new(Session).New(conn, s.store)

	// Info message.
	log.Printf("%s| Serving client %s", session.id, session.conn.RemoteAddr())

	session.Run()

	// Info message.
	log.Printf("%s| Finished serving client", session.id)
}

// New.
func (session *Session) New(conn net.Conn, store *store.AccountStore) *Session {
	session.id = uuid.NewString()[:8]
	session.conn = conn
	session.reader = bufio.NewReader(conn)
	session.writer = bufio.NewWriter(conn)
	session.store = store
	return session
}
