// Package main is the entry point for the fraudwatch warning feed engine.
package main

import (
	"fmt"
	"os"

	"fraudwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
