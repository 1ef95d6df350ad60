package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// Interrupted; whatever was printed before the signal stands.
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "phototriage: %v\n", err)
	os.Exit(1)
}
