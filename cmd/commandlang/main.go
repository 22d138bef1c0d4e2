// Package main provides the entry point for the commandlang CLI.
package main

import (
	"fmt"
	"os"

	"github.com/AlexanderGrooff/commandlang-go/cmd/commandlang/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
