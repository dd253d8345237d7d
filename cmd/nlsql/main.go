// Package main provides the nlsql command-line client.
package main

import (
	"os"

	"nl-sql-search/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
