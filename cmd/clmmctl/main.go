package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(newRootCmd()))
}

// execute runs root and returns the process exit code.
func execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("[clmmctl] command failed")
		return 1
	}
	return 0
}
