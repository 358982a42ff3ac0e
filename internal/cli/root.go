// Package cli implements the needscore command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/needscore/internal/logging"
	"github.com/ppiankov/needscore/internal/model"
)

// version is overridden at build time with -ldflags "-X .../cli.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool

	// set by the root PersistentPreRunE before any subcommand runs
	cfg    *model.Config
	logger = zerolog.Nop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "needscore",
	Short: "needscore - user need annotation scoring and reconciliation",
	Long: `needscore compares model annotations of news articles against one or more
human annotators.

Each article carries a user need label (one of eight, in four groups) and
three impact scores (I1, I3, I4 on the 1-9 scale). Where several annotators
disagree, every field is scored against the candidate the model agrees with
most, so a model is never penalized for matching a valid human opinion.

It can also annotate articles with an LLM, crawl category pages for article
ids, and report confusion matrices and value distributions.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "needscore v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.needscore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	rootCmd.AddCommand(versionCmd)
}

// UsageError marks invalid flags or arguments
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// IsUsageError reports whether err came from flag or argument parsing
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

// usageArgs marks positional argument errors as usage errors
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.GetViper()
	if err := configureViper(v, cfgFile); err != nil {
		return err
	}

	c, err := loadConfig(v)
	if err != nil {
		return err
	}

	level := c.Log.Level
	if verbose {
		level = "debug"
	}
	logger = logging.New(os.Stderr, level, c.Log.Format)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug().Str("path", used).Msg("using config file")
	}

	cfg = c
	return nil
}

// configureViper registers defaults, the config file and NEEDSCORE_* env
// variables. A missing file is only an error when path was given explicitly.
func configureViper(v *viper.Viper, path string) error {
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		return err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".needscore"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("NEEDSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys without a default are invisible to AutomaticEnv
	_ = v.BindEnv("llm.api_key", "NEEDSCORE_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("http.http_proxy", "NEEDSCORE_HTTP_HTTP_PROXY")
	_ = v.BindEnv("http.https_proxy", "NEEDSCORE_HTTP_HTTPS_PROXY")
	_ = v.BindEnv("http.no_proxy", "NEEDSCORE_HTTP_NO_PROXY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return &model.InputError{Path: path, Err: fmt.Errorf("read config: %w", err)}
	}
	return nil
}

// setDefaults registers every key of cfg as a viper default
func setDefaults(v *viper.Viper, c *model.Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setTree(v, "", tree)
	return nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig decodes the merged viper settings over DefaultConfig
func loadConfig(v *viper.Viper) (*model.Config, error) {
	c := model.DefaultConfig()
	if err := v.Unmarshal(c); err != nil {
		return nil, &model.InputError{Path: v.ConfigFileUsed(), Err: fmt.Errorf("decode config: %w", err)}
	}
	return c, nil
}
