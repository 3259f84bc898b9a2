// Package main provides the entry point for the medstock operator CLI.
package main

import (
	"github.com/medstock/backend/internal/cli"
)

func main() {
	cli.Execute()
}
