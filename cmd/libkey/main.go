// LibKey - Metabolomics and lipidomics spectral library toolkit
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/LibKey/cmd/libkey/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
