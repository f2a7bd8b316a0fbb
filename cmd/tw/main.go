// Command tw is the taskwire CLI: it runs the API server and provides
// client-side commands for working with tasks and events, including a
// live watch view fed by the broadcast channel.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
