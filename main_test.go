package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildConfig(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != wd || cfg.Suffix != "output.txt" || cfg.Output != "times.csv" || cfg.Producer != "" {
		t.Errorf("buildConfig() without flags got = %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "timecollect.yaml")
	if err := os.WriteFile(path, []byte("dir: /from/file\nproducer: from_file\nmarker: Best timing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := flag.CommandLine.Parse([]string{"-config", path, "-producer", "somas_solver"}); err != nil {
		t.Fatal(err)
	}
	cfg, err = buildConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != "/from/file" || cfg.Producer != "somas_solver" || cfg.Marker != "Best timing" {
		t.Errorf("buildConfig() with flags got = %+v", cfg)
	}
}
