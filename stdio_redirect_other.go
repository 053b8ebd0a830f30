//go:build !unix

package main

import "os"

// Without dup2 only Go-level writes are captured, not runtime panics.
func redirectStdIO(path string) error {
	f, err := openStdioLog(path)
	if err != nil || f == nil {
		return err
	}
	os.Stdout = f
	os.Stderr = f
	return nil
}
