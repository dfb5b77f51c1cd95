// Package main provides the entry point for the wpforge CLI.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		printError(err)
		os.Exit(exitCode(err))
	}
}
