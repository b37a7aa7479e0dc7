package harness

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseColor(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

const (
	DefaultRunner  = "gogui-twogtp"
	DefaultSGFFile = "twogtp.sgf"

	ProfileMatilda9x9 = "matilda-9x9"
	ProfileKomi75     = "komi75"
)

// Profile holds the per-deployment match settings handed to the runner.
type Profile struct {
	Name      string  `yaml:"name"`
	Runner    string  `yaml:"runner"`
	BoardSize int     `yaml:"board_size"`
	Komi      float64 `yaml:"komi"`
	// TimePerMove is passed verbatim to -time (e.g. "30s"). Empty means
	// no time budget flag at all.
	TimePerMove string `yaml:"time_per_move,omitempty"`
	SGFFile     string `yaml:"sgf_file"`
	// CandidateColor decides which of -white/-black the candidate gets, and
	// therefore how W+/B+ in the report map to win/loss.
	CandidateColor Color `yaml:"candidate_color"`
	// Baseline is the default opponent for this profile.
	Baseline string `yaml:"baseline"`
}

// Profiles are the two known deployments.
var Profiles = map[string]Profile{
	ProfileMatilda9x9: {
		Name:           ProfileMatilda9x9,
		Runner:         DefaultRunner,
		BoardSize:      9,
		Komi:           4.5,
		TimePerMove:    "30s",
		SGFFile:        DefaultSGFFile,
		CandidateColor: White,
		Baseline:       "matilda-old --losing resign -m gtp -l --disable_opening_books --memory 3200",
	},
	ProfileKomi75: {
		Name:           ProfileKomi75,
		Runner:         DefaultRunner,
		BoardSize:      9,
		Komi:           7.5,
		SGFFile:        DefaultSGFFile,
		CandidateColor: White,
		Baseline:       "gnugo --mode gtp --chinese-rules --positional-superko --level 10",
	},
}

func LookupProfile(name string) (Profile, error) {
	p, ok := Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// ReportFile is the name of the result file the runner writes next to the
// SGF.
func (p Profile) ReportFile() string {
	return p.SGFFile + ".dat"
}

// RunnerArgs builds the runner's argument list for one game.
func (p Profile) RunnerArgs(white, black string) []string {
	args := []string{
		"-size", strconv.Itoa(p.BoardSize),
		"-komi", strconv.FormatFloat(p.Komi, 'f', -1, 64),
		"-white", white,
		"-black", black,
		"-sgffile", p.SGFFile,
		"-games", "1",
		"-auto",
	}
	if p.TimePerMove != "" {
		args = append(args, "-time", p.TimePerMove)
	}
	return args
}

func (p Profile) Validate() error {
	if p.Runner == "" {
		return fmt.Errorf("profile %q: no runner", p.Name)
	}
	if p.BoardSize < 2 {
		return fmt.Errorf("profile %q: bad board size %d", p.Name, p.BoardSize)
	}
	if p.SGFFile == "" {
		return fmt.Errorf("profile %q: no sgf file", p.Name)
	}
	return nil
}
