package main

import (
	"os"

	"github.com/Draphar/redditrip/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
