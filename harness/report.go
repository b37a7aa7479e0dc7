package harness

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ResultLine is the zero-based line of the runner's .dat report holding
// the game result. The format is positional; nothing else in the file is
// read.
const ResultLine = 16

const (
	markerUnexpected = "unexpectedly"
	markerWhiteWins  = "W+"
	markerBlackWins  = "B+"
)

var ErrReportTooShort = errors.New("report has no result line")

// resultLine returns line ResultLine of r without its line terminator.
func resultLine(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	var line string
	for i := 0; i <= ResultLine; i++ {
		var err error
		line, err = br.ReadString('\n')
		if err == io.EOF {
			if i == ResultLine && line != "" {
				break
			}
			return "", ErrReportTooShort
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ExtractOutcome reads a report and maps its result line to an outcome for
// the side that played candidate.
func ExtractOutcome(r io.Reader, candidate Color) Outcome {
	line, err := resultLine(r)
	if err != nil {
		return ErrorOutcome(ReasonIOError)
	}
	switch {
	case strings.Contains(line, markerUnexpected):
		return ErrorOutcome(line)
	case strings.Contains(line, markerWhiteWins):
		return colorWon(White, candidate)
	case strings.Contains(line, markerBlackWins):
		return colorWon(Black, candidate)
	}
	return ErrorOutcome(ReasonUnknown)
}

func colorWon(winner, candidate Color) Outcome {
	if winner == candidate {
		return WinOutcome()
	}
	return LossOutcome()
}

// ReadReport opens the report at path. A missing or unreadable file is an
// Error outcome, never a returned error.
func ReadReport(path string, candidate Color) Outcome {
	f, err := os.Open(path)
	if err != nil {
		return ErrorOutcome(ReasonIOError)
	}
	defer f.Close()
	return ExtractOutcome(f, candidate)
}
