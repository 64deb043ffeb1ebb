package main

import (
	"os"

	"github.com/gridhaven/kraken/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
