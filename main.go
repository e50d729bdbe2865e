package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-registry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "registry:", err)
		os.Exit(1)
	}
}
