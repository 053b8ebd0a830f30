package main

import (
	"fmt"
	"os"
	"time"
)

// openStdioLog opens path for appending and stamps a session marker. An empty
// path yields a nil file.
func openStdioLog(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "---- statuslcd %s pid=%d ----\n", time.Now().Format(time.RFC3339), os.Getpid())
	return f, nil
}
