package main

import (
	"os"

	"github.com/pfrederiksen/econ-calendar/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
