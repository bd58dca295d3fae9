package network

import (
	"errors"
	"io"
	"log"
	"strings"

	"kasa/core"
	"kasa/store"
)

// Protocol lines sent by the server.
const (
	msgLoginPrompt    = "Login and password?"
	msgLoginOk        = "Correct login and password. Your balance: "
	msgLoginBad       = "Incorrect login or password. Try again."
	msgRegisterPrompt = "Login, password, and nickname?"
	msgRegisterOk     = "User registered successfully."
	msgRegisterDup    = "Login already in use. Try another."
	msgRegisterBad    = "Invalid registration details."
	msgDepositPrompt  = "Enter amount to deposit:"
	msgWithdrawPrompt = "Enter amount to withdraw:"
	msgTransferPrompt = "Enter recipient's login and amount to transfer:"
	msgTransferOk     = "Transfer successful. New balance: "
	msgTransferFail   = "Transfer failed. Insufficient funds or recipient not found."
	msgTransferBad    = "Invalid transfer details."
	msgNewBalance     = "New balance: "
	msgInsufficient   = "Insufficient funds."
	msgNotLoggedIn    = "Please log in first."
	msgInvalidAmount  = "Invalid amount format. Please enter a valid number."
	msgInternalError  = "Internal error. Please try again."
)

// Run reads one command line at a time and dispatches on the exact keyword
// until the client disconnects or the connection fails. Unknown lines are
// echoed back verbatim.
func (session *Session) Run() {
	for {
		line, err := session.readLine()
		if err != nil {
			if err != io.EOF {
				log.Printf("%s| I/O error: %v", session.id, err)
			}
			return
		}
		log.Printf("%s| Line read: %s", session.id, line)

		switch line {
		case "login":
			err = session.handleLogin()
		case "register":
			err = session.handleRegister()
		case "list":
			err = session.handleList()
		case "deposit":
			err = session.handleDeposit()
		case "withdraw":
			err = session.handleWithdraw()
		case "transfer":
			err = session.handleTransfer()
		default:
			// Echo back to the client.
			err = session.writeLine(line)
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("%s| I/O error: %v", session.id, err)
			}
			return
		}
	}
}

// handleLogin keeps prompting until a valid login/password pair arrives or
// the connection drops.
func (session *Session) handleLogin() error {
	if err := session.writeLine(msgLoginPrompt); err != nil {
		return err
	}
	for {
		line, err := session.readLine()
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 2 {
			account, err := session.store.Authenticate(fields[0], fields[1])
			if err == nil {
				session.login = account.Login
				return session.writeLine(msgLoginOk + core.FormatAmount(account.Balance))
			}
		}

		if err := session.writeLine(msgLoginBad); err != nil {
			return err
		}
	}
}

// handleRegister.
func (session *Session) handleRegister() error {
	if err := session.writeLine(msgRegisterPrompt); err != nil {
		return err
	}
	line, err := session.readLine()
	if err != nil {
		return err
	}

	// Extra trailing tokens are ignored; only the first four fields matter.
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return session.writeLine(msgRegisterBad)
	}

	balance, err := core.ParseAmount(fields[3])
	if err != nil {
		return session.writeLine(msgInvalidAmount)
	}

	switch err := session.store.Register(fields[0], fields[1], fields[2], balance); {
	case err == nil:
		return session.writeLine(msgRegisterOk)
	case errors.Is(err, store.ErrDuplicateLogin):
		return session.writeLine(msgRegisterDup)
	default:
		return session.writeLine(msgInternalError)
	}
}

// handleList sends every account's nickname as a single batched write.
func (session *Session) handleList() error {
	var batch strings.Builder
	for _, nickname := range session.store.Nicknames() {
		batch.WriteString(nickname)
		batch.WriteString("\r\n")
	}
	if _, err := session.writer.WriteString(batch.String()); err != nil {
		return err
	}
	return session.writer.Flush()
}

// handleDeposit.
func (session *Session) handleDeposit() error {
	if session.login == "" {
		return session.writeLine(msgNotLoggedIn)
	}
	if err := session.writeLine(msgDepositPrompt); err != nil {
		return err
	}
	line, err := session.readLine()
	if err != nil {
		return err
	}

	amount, err := core.ParseAmount(line)
	if err != nil {
		return session.writeLine(msgInvalidAmount)
	}

	balance, err := session.store.Deposit(session.login, amount)
	if err != nil {
		return session.writeLine(msgInternalError)
	}
	return session.writeLine(msgNewBalance + core.FormatAmount(balance))
}

// handleWithdraw.
func (session *Session) handleWithdraw() error {
	if session.login == "" {
		return session.writeLine(msgNotLoggedIn)
	}
	if err := session.writeLine(msgWithdrawPrompt); err != nil {
		return err
	}
	line, err := session.readLine()
	if err != nil {
		return err
	}

	amount, err := core.ParseAmount(line)
	if err != nil {
		return session.writeLine(msgInvalidAmount)
	}

	switch balance, err := session.store.Withdraw(session.login, amount); {
	case err == nil:
		return session.writeLine(msgNewBalance + core.FormatAmount(balance))
	case errors.Is(err, store.ErrInsufficientFunds):
		return session.writeLine(msgInsufficient)
	default:
		return session.writeLine(msgInternalError)
	}
}

// handleTransfer.
func (session *Session) handleTransfer() error {
	if session.login == "" {
		return session.writeLine(msgNotLoggedIn)
	}
	if err := session.writeLine(msgTransferPrompt); err != nil {
		return err
	}
	line, err := session.readLine()
	if err != nil {
		return err
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return session.writeLine(msgTransferBad)
	}

	amount, err := core.ParseAmount(fields[1])
	if err != nil {
		return session.writeLine(msgInvalidAmount)
	}

	switch balance, err := session.store.Transfer(session.login, fields[0], amount); {
	case err == nil:
		return session.writeLine(msgTransferOk + core.FormatAmount(balance))
	case errors.Is(err, store.ErrRecipientNotFound), errors.Is(err, store.ErrInsufficientFunds):
		return session.writeLine(msgTransferFail)
	default:
		return session.writeLine(msgInternalError)
	}
}

// readLine reads one CRLF- or LF-terminated line and strips the terminator.
func (session *Session) readLine() (string, error) {
	line, err := session.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// writeLine sends one CRLF-terminated line and flushes it.
func (session *Session) writeLine(line string) error {
	if _, err := session.writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return session.writer.Flush()
}
