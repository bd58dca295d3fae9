package network

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
)

// New.
func (c *InteractiveClient) New(serverAddr string, port int) *InteractiveClient {
	if port == 0 {
		port = BankPort
	}
	c.serverAddr = serverAddr
	c.port = port
	return c
}

// Execute connects to the bank server, prints every line it sends as it
// arrives, and forwards typed lines until "quit" or end of input.
func (c *InteractiveClient) Execute() error {
	// Connect to server.
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", c.serverAddr, c.port))
	if err != nil {
		log.Printf("failed to connect to server at %s: %v", c.serverAddr, err)
		return err
	}
	defer conn.Close()

	// Info message.
	log.Printf("Connected to Bank server at %s", conn.RemoteAddr())

	// Print server lines as they arrive.
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Printf("Received: %s\n", scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			log.Printf("failed to read from server: %v", err)
		}
	}()

	// Forward console lines.
	fmt.Println("You can type commands now.")
	writer := bufio.NewWriter(conn)
	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		if line == "quit" {
			fmt.Println("Closing...")
			break
		}
		if _, err := writer.WriteString(line + "\r\n"); err != nil {
			log.Printf("failed to write to server: %v", err)
			return err
		}
		if err := writer.Flush(); err != nil {
			log.Printf("failed to flush connection: %v", err)
			return err
		}
	}

	return stdin.Err()
}
