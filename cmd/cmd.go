package cmd

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"kasa/network"
	"kasa/store"
)

// flags
var (
	flags struct {
		address string
		port    int
		file    string
		db      string
		inspect bool
	}
)

// kasa
var kasa = &cobra.Command{
	Use:   "kasa command",
	Short: "A multi-client TCP banking service with a persistent account registry.",
}

// openStore builds the registry from the configured backend: sqlite when
// --db is set, the flat snapshot file otherwise.
func openStore() (*store.AccountStore, error) {
	if len(flags.db) > 0 {
		backend, err := new(store.SqliteBackend).New(flags.db)
		if err != nil {
			return nil, err
		}
		return new(store.AccountStore).New(backend)
	}

	path := flags.file
	if len(path) == 0 {
		directory, err := store.GetKasaDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(directory, "baza.txt")
	}
	return new(store.AccountStore).New(new(store.FileBackend).New(path))
}

// kasa serve
var serve = &cobra.Command{
	Use:   "serve [--file FILE | --db DB] [--port PORT]",
	Short: "Start the bank server.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(flags.file) > 0 && len(flags.db) > 0 {
			return fmt.Errorf("flags \"file\" and \"db\" are mutually exclusive")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Create store.
		accounts, err := openStore()
		if err != nil {
			log.Fatalf("failed to create store: %v", err)
		}

		log.Printf("Loaded %d accounts", accounts.Len())

		// Start BankServer.
		server := new(network.BankServer).New(accounts, flags.port)
		if err := server.Start(); err != nil {
			log.Fatalf("failed to start BankServer: %v", err)
		}
	},
}

// kasa client
var client = &cobra.Command{
	Use:   "client --server SERVER [--port PORT]",
	Short: "Start the interactive console client.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(flags.address) == 0 {
			return fmt.Errorf("required \"server\" flag not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Execute InteractiveClient.
		interactive := new(network.InteractiveClient).New(flags.address, flags.port)
		if err := interactive.Execute(); err != nil {
			log.Fatal(err)
		}
	},
}

// kasa inspect
var inspect = &cobra.Command{
	Use:   "inspect [--file FILE | --db DB] [-f]",
	Short: "View registry information.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(flags.file) > 0 && len(flags.db) > 0 {
			return fmt.Errorf("flags \"file\" and \"db\" are mutually exclusive")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Create store.
		accounts, err := openStore()
		if err != nil {
			log.Fatalf("failed to create store: %v", err)
		}

		// Inspect.
		if flags.inspect {
			accounts.InspectFull()
		} else {
			accounts.Inspect()
		}
	},
}

func init() {
	// Global.
	cobra.EnableCommandSorting = false

	// kasa
	kasa.PersistentFlags().StringVarP(&flags.address, "server", "s", "", "Remote server address.")
	kasa.PersistentFlags().IntVarP(&flags.port, "port", "p", network.BankPort, "Server port.")
	kasa.PersistentFlags().StringVar(&flags.file, "file", "", "Path of the flat snapshot file.")
	kasa.PersistentFlags().StringVar(&flags.db, "db", "", "Path of the sqlite snapshot database.")

	// kasa serve
	kasa.AddCommand(serve)
	// kasa client
	kasa.AddCommand(client)
	// kasa inspect
	kasa.AddCommand(inspect)
	inspect.Flags().BoolVarP(&flags.inspect, "full", "f", false, "Show all fields, passwords included.")
}

func Execute() {
	kasa.Execute()
}
