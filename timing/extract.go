package timing

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultMarker is what benchmark binaries print before the elapsed time,
// e.g. "--INFO-- Time elapsed: 1234 μs".
const DefaultMarker = "Time elapsed"

// MaxLineSize bounds a single line, the bufio default 64k is too short for some solver dumps.
const MaxLineSize = 16 << 20

type ParseError struct {
	LineNo int
	Line   string
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: bad timing %q: %v", e.LineNo, e.Line, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errEmptyValue = errors.New("nothing after the last ':'")

type Extractor struct {
	Marker string
}

// Extract scans r for the first line containing the Marker and parses the integer after its last ':'.
// Only the first such line counts, later ones are never looked at.
// If no line matches, found is false with nil err.
func (x Extractor) Extract(r io.Reader) (value int64, found bool, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !strings.Contains(line, x.Marker) {
			continue
		}
		v, e := parseValue(line)
		if e != nil {
			e.LineNo = lineNo
			return 0, false, e
		}
		return v, true, nil
	}
	return 0, false, scanner.Err()
}

// parseValue takes the first word behind the last ':' of line.
// "Time elapsed: 42 seconds" and "Time elapsed:7" are both fine.
func parseValue(line string) (int64, *ParseError) {
	segment := strings.TrimSpace(line[strings.LastIndexByte(line, ':')+1:])
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return 0, &ParseError{Line: line, Err: errEmptyValue}
	}
	value, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, &ParseError{Line: line, Token: fields[0], Err: err}
	}
	return value, nil
}

// ExtractFile opens path and runs Extract on it, the file is closed before return.
func (x Extractor) ExtractFile(path string) (value int64, found bool, err error) {
	fp, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer func(c io.Closer) {
		_ = c.Close() // read only, nothing to lose
	}(fp)

	value, found, err = x.Extract(fp)
	if err != nil {
		return 0, false, fmt.Errorf("extract timing from %s: %w", path, err)
	}
	return value, found, nil
}

func Extract(r io.Reader) (value int64, found bool, err error) {
	return Extractor{Marker: DefaultMarker}.Extract(r)
}

func ExtractFile(path string) (value int64, found bool, err error) {
	return Extractor{Marker: DefaultMarker}.ExtractFile(path)
}
