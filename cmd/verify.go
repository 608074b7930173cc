package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/azhovan/rangeprobe/pkg/client"
	"github.com/azhovan/rangeprobe/pkg/logger"
	"github.com/azhovan/rangeprobe/pkg/verify"
	"github.com/spf13/cobra"
)

type verifyOptions struct {
	configPath string

	baseURL  string
	resource string
	ranges   []string

	window      int
	timeout     time.Duration
	rps         float64
	maxBodySize int64

	bearerToken string

	output         string
	progress       bool
	failOnMismatch bool
	logLevel       string
}

func newVerifyCmd(output io.Writer) *cobra.Command {
	var opts = &verifyOptions{}

	var cmd = &cobra.Command{
		Use:   "verify --url [ADDRESS] --resource [PATH]",
		Short: "request each range in static and live mode and compare the bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}

			level, err := logger.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			log := logger.NewLeveled(cmd.ErrOrStderr(), level)

			var clientOpts []client.Option
			if opts.progress {
				clientOpts = append(clientOpts, client.WithBodyObserver(newProgressObserver(cmd.ErrOrStderr())))
			}
			if opts.bearerToken != "" {
				clientOpts = append(clientOpts, client.WithAuth(&client.BearerToken{Token: opts.bearerToken}))
			}

			v, err := verify.New(cfg, verify.WithLogger(log), verify.WithClientOptions(clientOpts...))
			if err != nil {
				return err
			}

			report := v.Run(cmd.Context())

			switch opts.output {
			case "json":
				enc := json.NewEncoder(output)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			default:
				if _, err := io.WriteString(output, renderReport(report)); err != nil {
					return err
				}
			}

			if opts.failOnMismatch && !report.Passed() {
				if err := report.Err(); err != nil {
					return err
				}
				return fmt.Errorf("verification did not pass")
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML file with base_url, resource, scenarios and limits.")
	cmd.Flags().StringVarP(&opts.baseURL, "url", "u", "", "The media server address, e.g. http://localhost:34455.")
	cmd.Flags().StringVarP(&opts.resource, "resource", "r", "", "The media_file value, usually an absolute path on the server.")
	cmd.Flags().StringArrayVar(&opts.ranges, "range", nil, "A scenario as LABEL=RANGE (repeatable). Replaces the default scenarios.")
	cmd.Flags().IntVarP(&opts.window, "window", "w", verify.DefaultWindowSize, "Number of leading and trailing bytes digested separately.")
	cmd.Flags().DurationVarP(&opts.timeout, "timeout", "t", client.DefaultTimeout, "Timeout for each request, body included.")
	cmd.Flags().Float64Var(&opts.rps, "rps", 0, "Maximum requests per second, 0 for no pacing.")
	cmd.Flags().Int64Var(&opts.maxBodySize, "max-body-size", 0, "Maximum body size per response in bytes, 0 for unlimited.")
	cmd.Flags().StringVar(&opts.bearerToken, "bearer-token", "", "Bearer token sent with every request.")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Report format: text or json.")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "Show a progress bar per response body on stderr.")
	cmd.Flags().BoolVar(&opts.failOnMismatch, "fail-on-mismatch", false, "Exit non-zero when any scenario does not match.")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error.")

	return cmd
}

// config builds the run configuration: defaults, then the config file,
// then every flag the user set explicitly.
func (o *verifyOptions) config(cmd *cobra.Command) (verify.Config, error) {
	if o.output != "text" && o.output != "json" {
		return verify.Config{}, fmt.Errorf("unknown output format %q", o.output)
	}

	cfg := verify.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = verify.LoadConfig(o.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("resource") {
		cfg.Resource = o.resource
	}
	if flags.Changed("window") {
		cfg.WindowSize = o.window
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("rps") {
		cfg.RequestsPerSecond = o.rps
	}
	if flags.Changed("max-body-size") {
		cfg.MaxBodySize = o.maxBodySize
	}
	if len(o.ranges) > 0 {
		scenarios, err := parseScenarios(o.ranges)
		if err != nil {
			return cfg, err
		}
		cfg.Scenarios = scenarios
	}

	return cfg, nil
}

// parseScenarios turns LABEL=RANGE values into scenarios. A value without
// "=" uses the range as its own label.
func parseScenarios(values []string) ([]verify.Scenario, error) {
	scenarios := make([]verify.Scenario, 0, len(values))
	for _, v := range values {
		label, rng, ok := strings.Cut(v, "=")
		if !ok || strings.HasPrefix(v, "bytes=") {
			label, rng = v, v
		}
		label, rng = strings.TrimSpace(label), strings.TrimSpace(rng)
		if rng != "" {
			if _, err := verify.ParseRange(rng); err != nil {
				return nil, fmt.Errorf("--range %q: %w", v, err)
			}
		}
		scenarios = append(scenarios, verify.Scenario{Label: label, Range: rng})
	}
	return scenarios, nil
}
