// ABOUTME: Entry point for the wishlist CLI
// ABOUTME: Command-line and terminal UI client for the Wishlist API

package main

import (
	"fmt"
	"os"

	"github.com/markalston/wishlist-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
