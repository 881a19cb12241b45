// Package command provides the josectl command definitions.
//
// It uses urfave/cli/v2 for command parsing. Every token command builds a
// jose.Processor from the configuration file and JOSE_ environment
// variables, so josectl signs and verifies exactly like the service that
// shares its configuration.
package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cybergodev/jose"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// App creates the josectl application.
func App() *cli.App {
	return &cli.App{
		Name:    "josectl",
		Usage:   "Issue, verify, encrypt and decrypt compact JOSE tokens",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			KeygenCommand(),
			SignCommand(),
			VerifyCommand(),
			EncryptCommand(),
			DecryptCommand(),
		},
		Reader:    os.Stdin,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"JOSE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error (overrides log.level)",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text (overrides log.format)",
		},
		&cli.StringFlag{
			Name:  "issuer",
			Usage: "Token issuer (overrides issuer)",
		},
	}
}

// flagOverrides maps global flags onto configuration keys. Flags win over
// the file and the environment.
var flagOverrides = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"issuer":     "issuer",
}

// loadConfig reads the configuration named by --config with the global
// flag overrides applied on top.
func loadConfig(c *cli.Context) (jose.Config, error) {
	overrides := make(map[string]any, len(flagOverrides))
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg, err := jose.LoadConfigWithOverrides(c.String("config"), overrides)
	if err != nil {
		return jose.Config{}, err
	}
	cfg.Log.Output = c.App.ErrWriter
	return cfg, nil
}

// openProcessor builds a Processor from the command's configuration. The
// caller closes it.
func openProcessor(c *cli.Context) (*jose.Processor, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return jose.NewFromConfig(cfg, jose.WithLogger(jose.NewLogger(cfg.Log)))
}

// readInput returns value, or the whole of stdin when value is empty or "-".
func readInput(c *cli.Context, value string) ([]byte, error) {
	if value != "" && value != "-" {
		return []byte(value), nil
	}
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, errors.New("no input: pass an argument or pipe data on stdin")
	}
	return data, nil
}

func closeProcessor(p *jose.Processor, err *error) {
	if cerr := p.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
