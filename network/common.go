package network

// BankPort is the port the bank server listens on by default.
var BankPort = 6699
