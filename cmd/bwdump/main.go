// Command bwdump loads newline-delimited "key value" pairs from stdin into
// a Tree and prints its node structure, for inspecting delta chain shape
// and split/merge behavior while developing against the index directly.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"bwtree"
)

func main() {
	t := bwtree.New(bytes.Compare, bwtree.BytesEqual)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		key := []byte(fields[0])
		var value any
		if len(fields) == 2 {
			value = fields[1]
		}
		if err := t.Insert(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "insert %q: %v\n", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "reading stdin: %v\n", err)
		os.Exit(1)
	}

	if err := t.Dump(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dump: %v\n", err)
		os.Exit(1)
	}
}
