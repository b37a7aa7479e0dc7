package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/matchharness/harness"
	"github.com/domino14/matchharness/stats"
)

const ConfidenceInterval = 95.0

// Summary tallies a series from the candidate's point of view.
type Summary struct {
	Games  int
	Wins   int
	Losses int
	Errors int
	// ErrorReasons counts Error outcomes by reason.
	ErrorReasons map[string]int
	durations    []float64
}

func (s *Summary) Add(r Result) {
	s.Games++
	switch r.Outcome.Kind {
	case harness.Win:
		s.Wins++
	case harness.Loss:
		s.Losses++
	default:
		s.Errors++
		if s.ErrorReasons == nil {
			s.ErrorReasons = map[string]int{}
		}
		s.ErrorReasons[r.Outcome.Reason]++
	}
	s.durations = append(s.durations, r.Duration.Seconds())
}

// Decided is the number of games that ended in a win or a loss.
func (s *Summary) Decided() int {
	return s.Wins + s.Losses
}

// WinRate is over decided games only.
func (s *Summary) WinRate() float64 {
	if s.Decided() == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Decided())
}

func (s *Summary) Interval() (float64, float64) {
	return stats.WinRateInterval(float64(s.Wins), s.Decided(), ConfidenceInterval)
}

// Line is a one-line form for logs.
func (s *Summary) Line() string {
	return fmt.Sprintf("%d games, +%d -%d, %d errors, win rate %.3f",
		s.Games, s.Wins, s.Losses, s.Errors, s.WinRate())
}

func (s *Summary) String() string {
	low, high := s.Interval()
	str := fmt.Sprintf("Games played: %d\n", s.Games)
	str += fmt.Sprintf("Candidate wins: %d\n", s.Wins)
	str += fmt.Sprintf("Candidate losses: %d\n", s.Losses)
	str += fmt.Sprintf("Errors: %d\n", s.Errors)
	str += fmt.Sprintf("Win rate: %.3f%% (%.0f%% CI %.3f%% - %.3f%%)\n",
		100*s.WinRate(), ConfidenceInterval, 100*low, 100*high)
	if len(s.durations) > 0 {
		mean, std := stat.MeanStdDev(s.durations, nil)
		if len(s.durations) == 1 {
			std = 0
		}
		str += fmt.Sprintf("Trial duration: mean %v  stdev %v\n",
			secondsToDuration(mean), secondsToDuration(std))
	}
	reasons := lo.Keys(s.ErrorReasons)
	slices.Sort(reasons)
	for _, reason := range reasons {
		str += fmt.Sprintf("  %4d x %s\n", s.ErrorReasons[reason], reason)
	}
	return str
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second)).Round(time.Millisecond)
}

// AnalyzeLogFile reads a CSV log written by CSVSink and returns the
// summary text.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	summary, err := ReadLog(file)
	if err != nil {
		return "", err
	}
	return summary.String(), nil
}

// ReadLog rebuilds a Summary from CSV log records.
func ReadLog(r io.Reader) (*Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	summary := &Summary{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[0] == csvHeader[0] {
			continue
		}
		res, err := parseRecord(record)
		if err != nil {
			return nil, err
		}
		summary.Add(res)
	}
	return summary, nil
}

func parseRecord(record []string) (Result, error) {
	id, err := strconv.Atoi(record[0])
	if err != nil {
		return Result{}, fmt.Errorf("bad trial id %q: %w", record[0], err)
	}
	var outcome harness.Outcome
	switch strings.ToUpper(record[1]) {
	case "W":
		outcome = harness.WinOutcome()
	case "L":
		outcome = harness.LossOutcome()
	case "E":
		outcome = harness.ErrorOutcome(record[2])
	default:
		return Result{}, fmt.Errorf("bad outcome %q for trial %d", record[1], id)
	}
	attempts, err := strconv.ParseUint(record[3], 10, 32)
	if err != nil {
		return Result{}, fmt.Errorf("bad attempts %q: %w", record[3], err)
	}
	ms, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return Result{}, fmt.Errorf("bad duration %q: %w", record[4], err)
	}
	return Result{
		Trial:    id,
		Outcome:  outcome,
		Attempts: uint(attempts),
		Duration: time.Duration(ms) * time.Millisecond,
	}, nil
}
