package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/repr"
	"github.com/coreos/pkg/capnslog"
	"github.com/pontaoski/stackc/compiler"
	"github.com/pontaoski/stackc/config"
	"github.com/pontaoski/stackc/errors"
	"github.com/urfave/cli/v2"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"
)

var plog = capnslog.NewPackageLogger("github.com/pontaoski/stackc", "main")

// sourceError ties a compile error to the file it came from.
type sourceError struct {
	file string
	err  error
}

func (s sourceError) Error() string {
	if _, ok := errors.LocationOf(s.err); ok {
		return s.file + ":" + tracerr.Unwrap(s.err).Error()
	}
	return s.file + ": " + tracerr.Unwrap(s.err).Error()
}

// project returns the project file in the working directory, or the defaults
// when there is none.
func project() (config.Config, bool, error) {
	if _, err := os.Stat(config.FileName); os.IsNotExist(err) {
		return config.Default(), false, nil
	}
	cfg, err := config.Load(config.FileName)
	if err != nil {
		return config.Config{}, false, err
	}
	return cfg, true, nil
}

func readSource(c *cli.Context) (string, string, error) {
	file := c.Args().First()
	if file == "" {
		return "", "", tracerr.New("no input file provided")
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return "", "", tracerr.Wrap(err)
	}
	return file, string(data), nil
}

func outputPath(c *cli.Context, file string, cfg config.Config, fromProject bool) string {
	if out := c.String("output"); out != "" {
		return out
	}
	if fromProject && cfg.Package != "" {
		return filepath.Join(cfg.OutputDir, cfg.Package+".s")
	}
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".s"
}

func setupLogging(c *cli.Context) error {
	cfg, _, err := project()
	if err != nil {
		return err
	}

	name := cfg.LogLevel
	if c.IsSet("log-level") {
		name = c.String("log-level")
	}
	level, err := capnslog.ParseLevel(strings.ToUpper(name))
	if err != nil {
		return tracerr.Errorf("invalid log level %q", name)
	}

	capnslog.SetFormatter(capnslog.NewPrettyFormatter(os.Stderr, level >= capnslog.DEBUG))
	capnslog.SetGlobalLogLevel(level)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "stackc",
		Usage: "compile programs to x86-64 assembly",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG, TRACE",
				Value: "INFO",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print errors with a stack trace",
			},
		},
		Before: setupLogging,
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			if c.Bool("trace") {
				if serr, ok := err.(sourceError); ok {
					err = serr.err
				}
				tracerr.PrintSourceColor(err)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(1)
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "create a project file",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					name := c.Args().First()
					if name == "" {
						return tracerr.New("no package name provided")
					}
					if _, err := os.Stat(config.FileName); err == nil {
						return tracerr.Errorf("%s already exists", config.FileName)
					}

					cfg := config.Default()
					cfg.Package = name
					if err := config.Save(config.FileName, cfg); err != nil {
						return err
					}

					plog.Infof("created %s for package %s", config.FileName, name)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "check a file without generating code",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					file, source, err := readSource(c)
					if err != nil {
						return err
					}

					comp := compiler.New(compiler.Options{})
					if err := comp.Validate(source); err != nil {
						return sourceError{file, err}
					}

					stats := comp.Stats()
					plog.Infof("%s: ok (%d lines, %d tokens, %d nodes in %s)", file, stats.Lines, stats.Tokens, stats.Nodes, stats.Elapsed)
					return nil
				},
			},
			{
				Name:      "typeinfo",
				Usage:     "print the signatures of the functions in a file",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					file, source, err := readSource(c)
					if err != nil {
						return err
					}

					info, err := compiler.New(compiler.Options{}).TypeInfo(source)
					if err != nil {
						return sourceError{file, err}
					}

					out, err := yaml.Marshal(info)
					if err != nil {
						return tracerr.Wrap(err)
					}
					fmt.Print(string(out))
					return nil
				},
			},
			{
				Name:      "build",
				Usage:     "compile a file to assembly",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write the assembly to `PATH`",
					},
					&cli.IntFlag{
						Name:    "optimization",
						Aliases: []string{"O"},
						Usage:   fmt.Sprintf("optimization level, 0-%d", compiler.MaxOptimizationLevel),
					},
					&cli.BoolFlag{
						Name:  "tokens",
						Usage: "dump the token stream",
					},
					&cli.BoolFlag{
						Name:  "ast",
						Usage: "dump the syntax tree",
					},
					&cli.BoolFlag{
						Name:  "assembly",
						Usage: "print the assembly instead of writing it",
					},
				},
				Action: func(c *cli.Context) error {
					file, source, err := readSource(c)
					if err != nil {
						return err
					}

					cfg, fromProject, err := project()
					if err != nil {
						return err
					}
					opts := cfg.Options()
					if c.IsSet("optimization") {
						opts.OptimizationLevel = c.Int("optimization")
					}

					comp := compiler.New(opts)
					asm, err := comp.Compile(source)

					if c.Bool("tokens") {
						repr.Println(comp.Tokens())
					}
					if c.Bool("ast") && comp.Program() != nil {
						repr.Println(comp.Program())
					}
					if err != nil {
						return sourceError{file, err}
					}

					if c.Bool("assembly") {
						fmt.Print(asm)
						return nil
					}

					out := outputPath(c, file, cfg, fromProject)
					if err := ioutil.WriteFile(out, []byte(asm), 0644); err != nil {
						return tracerr.Wrap(err)
					}

					stats := comp.Stats()
					plog.Infof("wrote %s: %d functions from %d lines in %s", out, stats.Functions, stats.Lines, stats.Elapsed)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
