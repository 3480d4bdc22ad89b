package aggregator

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"strings"
	"timecollect/timing"
)

const (
	DefaultSuffix = "output.txt"
	DefaultOutput = "times.csv"
)

type Config struct {
	Dir    string `yaml:"dir"`
	Suffix string `yaml:"suffix"`
	Marker string `yaml:"marker"`
	// Output is the CSV to append to, relative paths are resolved against Dir.
	Output string `yaml:"output"`
	// Producer is the executable suffix of the benchmark that writes candidates, empty to skip the check.
	Producer string `yaml:"producer"`
}

func DefaultConfig() Config {
	return Config{
		Dir:    "",
		Suffix: DefaultSuffix,
		Marker: timing.DefaultMarker,
		Output: DefaultOutput,
	}
}

// parse decodes YAML on top of DefaultConfig, so absent keys keep their defaults.
func parse(r io.Reader) (Config, error) {
	ret := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&ret); err != nil {
		// Empty file is a valid config, all defaults.
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	return ret, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	ret, err := parse(strings.NewReader(string(data)))
	if err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return ret, nil
}

func (c Config) Validate() error {
	if c.Suffix == "" {
		return fmt.Errorf("empty suffix would match every file")
	}
	if c.Marker == "" {
		return fmt.Errorf("empty marker would match every line")
	}
	if c.Output == "" {
		return fmt.Errorf("empty output")
	}
	if strings.HasSuffix(c.Output, c.Suffix) {
		return fmt.Errorf("output %s ends with suffix %s and would be deleted by the next run", c.Output, c.Suffix)
	}
	return nil
}
