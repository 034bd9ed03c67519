package forward

import (
	"bufio"
	"os"
)

// defaultLogHeadLines bounds how much of a failed forward's log is replayed
// to the operator. Startup errors from the proxy client appear in the first
// few lines; the bound just keeps pathological output from flooding the
// terminal.
const defaultLogHeadLines = 120

// logHead returns up to maxLines lines from the start of the file.
func logHead(path string, maxLines int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < maxLines {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}
