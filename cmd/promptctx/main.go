package main

import (
	"fmt"
	"os"

	"github.com/temirov/promptctx/internal/cli"
	"github.com/temirov/promptctx/internal/utils"
)

// main is the entry point for the promptctx command.
func main() {
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		_, _ = fmt.Fprintf(os.Stderr, utils.ErrorLogFormat+"\n", applicationExecutionError)
		os.Exit(1)
	}
}
