package aggregator

import (
	"encoding/csv"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"timecollect/monitor"
	"timecollect/timing"
)

type Candidate struct {
	Name string
	Path string
	Size int64 // as listed, only for the summary
}

type Record struct {
	Name  string
	Value int64
}

type Result struct {
	RunID        string
	Candidates   []Candidate
	Records      []Record // sorted by Name
	Line         string   // as appended, without the newline
	RemovedBytes int64
}

func (r Result) String() string {
	return fmt.Sprintf(
		"run %s: %d/%d files timed, appended %q, removed %s",
		r.RunID,
		len(r.Records),
		len(r.Candidates),
		r.Line,
		humanize.IBytes(uint64(r.RemovedBytes)),
	)
}

// ProcessScanner lists the running processes, *monitor.Client is the real one.
type ProcessScanner interface {
	Scan() ([]monitor.Process, error)
}

type Aggregator struct {
	cfg     Config
	scanner ProcessScanner
}

func New(cfg Config, scanner ProcessScanner) *Aggregator {
	return &Aggregator{cfg: cfg, scanner: scanner}
}

// Run aggregates cfg.Dir once with the live process table as producer guard.
func Run(cfg Config) (*Result, error) {
	return New(cfg, monitor.NewClient()).Run()
}

// Candidates lists the entries of dir whose name ends with suffix.
// It's a literal match, no glob and no case folding. Directories are not skipped,
// one with a matching name makes the later read fail.
func Candidates(dir string, suffix string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ret []Candidate
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat candidate %s: %w", entry.Name(), err)
		}
		ret = append(ret, Candidate{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}
	return ret, nil
}

func (a *Aggregator) outputPath() string {
	if filepath.IsAbs(a.cfg.Output) {
		return filepath.Clean(a.cfg.Output)
	}
	return filepath.Clean(filepath.Join(a.cfg.Dir, a.cfg.Output))
}

// Run does one pass: extract every candidate, append the sorted timings as one CSV line, remove the candidates.
// Any failure before the append leaves both the CSV and the candidates untouched.
func (a *Aggregator) Run() (*Result, error) {
	if a.cfg.Dir == "" {
		return nil, fmt.Errorf("no directory to aggregate")
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := a.checkProducer(); err != nil {
		return nil, err
	}

	ret := &Result{RunID: uuid.NewString()}
	log := slog.With("run", ret.RunID)

	candidates, err := Candidates(a.cfg.Dir, a.cfg.Suffix)
	if err != nil {
		return nil, err
	}
	ret.Candidates = candidates

	nameToValue, err := a.collect(log, candidates)
	if err != nil {
		return nil, err
	}
	ret.Records = sortByName(nameToValue)

	fields := make([]string, 0, len(ret.Records))
	for _, record := range ret.Records {
		fields = append(fields, strconv.FormatInt(record.Value, 10))
	}
	if err := appendRecord(a.outputPath(), fields); err != nil {
		return nil, err
	}
	ret.Line = strings.Join(fields, ",")

	for _, candidate := range candidates {
		if err := os.Remove(candidate.Path); err != nil {
			return nil, fmt.Errorf("remove %s after appending to %s: %w", candidate.Name, a.outputPath(), err)
		}
		ret.RemovedBytes += candidate.Size
	}
	log.Debug("removed candidates", "count", len(candidates), "size", humanize.IBytes(uint64(ret.RemovedBytes)))
	return ret, nil
}

func (a *Aggregator) checkProducer() error {
	if a.cfg.Producer == "" {
		return nil
	}
	processes, err := a.scanner.Scan()
	if err != nil {
		return fmt.Errorf("scan for producer %s: %w", a.cfg.Producer, err)
	}
	running := monitor.FilterByExecutableSuffix(processes, a.cfg.Producer)
	if len(running) == 0 {
		return nil
	}
	var pids []int
	for _, p := range running {
		pids = append(pids, p.PID)
	}
	return fmt.Errorf("%w: %s on PID %v", monitor.ErrProducerRunning, a.cfg.Producer, pids)
}

// collect extracts each candidate, a candidate without the marker is left out of the map.
func (a *Aggregator) collect(log *slog.Logger, candidates []Candidate) (map[string]int64, error) {
	x := timing.Extractor{Marker: a.cfg.Marker}
	ret := make(map[string]int64)
	for _, candidate := range candidates {
		value, found, err := x.ExtractFile(candidate.Path)
		if err != nil {
			return nil, err
		}
		if !found {
			log.Debug("no timing", "file", candidate.Name, "marker", a.cfg.Marker)
			continue
		}
		log.Debug("timing", "file", candidate.Name, "value", value)
		ret[candidate.Name] = value
	}
	return ret, nil
}

func sortByName(nameToValue map[string]int64) []Record {
	ret := make([]Record, 0, len(nameToValue))
	for name, value := range nameToValue {
		ret = append(ret, Record{Name: name, Value: value})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Name < ret[j].Name
	})
	return ret
}

// appendRecord writes fields as one CSV line at the end of path, creating it if absent.
// No fields still makes an empty line.
func appendRecord(path string, fields []string) error {
	fp, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(fp)
	if err := writer.Write(fields); err != nil {
		_ = fp.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = fp.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return fp.Close()
}
