package main

import (
	"fmt"
	"os"

	"github.com/dbops-engineering/autoscaler/version"
	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	args := os.Args[1:]

	c := &cli.CLI{
		Name:     "autoscaler",
		Version:  version.Get(),
		Args:     args,
		Commands: Commands(nil),
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		return 1
	}

	return exitCode
}
