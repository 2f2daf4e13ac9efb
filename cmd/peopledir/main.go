package main

import (
	"os"

	"github.com/palantir/compute-module-people-directory/cmd/peopledir/commands"
)

func main() {
	os.Exit(commands.Execute())
}
