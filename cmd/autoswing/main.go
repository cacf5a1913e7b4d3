package main

import (
	"os"

	"github.com/shaurya-ahuja/autoswing-trading-suite/cmd/autoswing/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
