// Command waypoint enumerates and scores the routes through a workflow graph,
// asks a reviewer to approve one, and then walks the approved route question
// by question.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
