// Command houseprice runs the sale-price pipeline stages and serves the
// trained model.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("[houseprice]"), err)
		os.Exit(1)
	}
}
