package main

import (
	"fmt"
	"os"

	"github.com/zatekoja/carebooking/internal/schedulectl"
)

func main() {
	if err := schedulectl.NewRootCommand(nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
