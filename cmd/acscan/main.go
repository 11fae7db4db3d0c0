// acscan finds every occurrence of a fixed keyword list in files, streaming
// each file once through an Aho-Corasick automaton.
package main

import (
	"fmt"
	"os"

	"github.com/corey/acscan/cmd/acscan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if code := cmd.ExitCode(err); code >= 0 {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "acscan: %s\n", cmd.Describe(err))
		os.Exit(2)
	}
}
