// Command domainx ranks software libraries by weighted category scores.
package main

import (
	"fmt"
	"os"

	"github.com/thaafei/domainx/cmd"
)

func main() {
	defer cmd.CloseStores()
	if err := cmd.Execute(); err != nil {
		cmd.CloseStores()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
