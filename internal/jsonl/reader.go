package jsonl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadLines returns every non-blank line of a JSON-lines file. Lines may be
// very long (tool results embed whole files), so no scanner limit applies.
func ReadLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open log stream: %w", err)
	}
	defer f.Close()

	var lines [][]byte
	err = eachLine(f, func(line []byte) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, fmt.Errorf("could not read log stream %s: %w", path, err)
	}
	return lines, nil
}

// TailLines returns the last n non-blank lines of a JSON-lines file.
func TailLines(path string, n int) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open log stream: %w", err)
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}
	ring := make([][]byte, 0, n)
	err = eachLine(f, func(line []byte) {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	})
	if err != nil {
		return nil, fmt.Errorf("could not read log stream %s: %w", path, err)
	}
	return ring, nil
}

func eachLine(r io.Reader, fn func([]byte)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			fn(trimmed)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
