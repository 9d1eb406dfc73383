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
	// An interrupt cancels the command context; exit quietly.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "lectern:", err)
	}
	os.Exit(1)
}
