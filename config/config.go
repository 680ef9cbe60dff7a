package config

import (
	"io/ioutil"
	"strings"

	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/compiler"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"
)

// FileName is the project file looked up in the working directory.
const FileName = "stackc.yaml"

type Config struct {
	Package      string `yaml:"package"`
	Optimization int    `yaml:"optimization"`
	LogLevel     string `yaml:"log_level"`
	OutputDir    string `yaml:"output_dir"`
}

func Default() Config {
	return Config{
		LogLevel:  "INFO",
		OutputDir: ".",
	}
}

// Load reads a project file. Keys missing from the file keep their default
// values.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, tracerr.Wrap(err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, tracerr.Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Save(path string, cfg Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return tracerr.Wrap(err)
	}
	return tracerr.Wrap(ioutil.WriteFile(path, out, 0644))
}

func (c Config) Validate() error {
	if c.Optimization < 0 || c.Optimization > compiler.MaxOptimizationLevel {
		return tracerr.Errorf("optimization must be between 0 and %d, not %d", compiler.MaxOptimizationLevel, c.Optimization)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c Config) Level() (capnslog.LogLevel, error) {
	level, err := capnslog.ParseLevel(strings.ToUpper(c.LogLevel))
	if err != nil {
		return 0, tracerr.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Options returns the compile options the project asks for.
func (c Config) Options() compiler.Options {
	return compiler.Options{OptimizationLevel: c.Optimization}
}
