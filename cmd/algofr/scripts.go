package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// loadSource reads a program file. "-" reads standard input, which then
// cannot answer LIRE.
func loadSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	src := strings.TrimPrefix(string(b), "\ufeff")
	if strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("%s is empty", displayName(path))
	}
	return src, nil
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return filepath.Base(path)
}
