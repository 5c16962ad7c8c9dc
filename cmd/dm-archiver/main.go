package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agnosto/dm-archiver/cmd"
)

const version = "v1.0.0"

func main() {
	if err := cmd.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
