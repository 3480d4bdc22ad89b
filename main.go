package main

import (
	"flag"
	"fmt"
	"github.com/dustin/go-humanize"
	"log"
	"log/slog"
	"os"
	"timecollect/aggregator"
	"timecollect/monitor"
)

var dir = flag.String("dir", "", "directory of the benchmark outputs, the working directory if empty")
var configPath = flag.String("config", "", "optional YAML file of dir, suffix, marker, output and producer")
var producer = flag.String("producer", "", "match suffix of the benchmark executable, refuse to run while it is alive")
var scanMode = flag.Bool("scanMode", false, "print visible processes and exit")
var verbose = flag.Bool("verbose", false, "log each file")

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *scanMode {
		processes, err := monitor.NewClient().Scan()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range processes {
			fmt.Println(p)
		}
		return
	}

	cfg, err := buildConfig()
	if err != nil {
		log.Fatal(err)
	}
	result, err := aggregator.Run(cfg)
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("aggregated",
		"run", result.RunID,
		"dir", cfg.Dir,
		"timed", len(result.Records),
		"files", len(result.Candidates),
		"line", result.Line,
		"removed", humanize.IBytes(uint64(result.RemovedBytes)),
	)
}

// buildConfig layers defaults, the -config file and the flags given explicitly, in that order.
func buildConfig() (aggregator.Config, error) {
	cfg := aggregator.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = aggregator.LoadConfig(*configPath); err != nil {
			return aggregator.Config{}, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Dir = *dir
		case "producer":
			cfg.Producer = *producer
		}
	})
	if cfg.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return aggregator.Config{}, err
		}
		cfg.Dir = wd
	}
	return cfg, nil
}
