package main

import (
	"log"
	"os"

	"github.com/idlist/accounts-api/cmd/api/commands"
)

// @title Accounts API
// @version 1.0
// @description Reads and replaces the stored account collection

// @host localhost:3000
// @BasePath /

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
