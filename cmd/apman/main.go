package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackcoderx/apman/pkg/core"
	"github.com/blackcoderx/apman/pkg/storage"
	"github.com/blackcoderx/apman/pkg/transport"
)

var (
	cfgFile        string
	collectionPath string
	envName        string
	verbose        bool
	rootCmd        = &cobra.Command{
		Use:   "apman",
		Short: "apman - call the requests of a Postman collection as operations",
		Long: `apman compiles a Postman collection into named operations.
Each request becomes an operation with an inferred data shape; calls are
validated against that shape before anything is sent.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if it exists (optional, warn if malformed)
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .apman/config.json)")
	rootCmd.PersistentFlags().StringVarP(&collectionPath, "collection", "c", "", "collection file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "environment to take variable values from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and responses to stderr")

	_ = viper.BindPFlag("collection", rootCmd.PersistentFlags().Lookup("collection"))
	_ = viper.BindPFlag("environment", rootCmd.PersistentFlags().Lookup("env"))

	def := core.DefaultConfig()
	viper.SetDefault("environment", def.Environment)
	viper.SetDefault("timeout_seconds", def.TimeoutSeconds)
	viper.SetDefault("log_level", def.LogLevel)
	viper.SetDefault("render_width", def.RenderWidth)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(core.ApmanFolderName)
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("apman")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// workspaceDir is the .apman folder of the current directory.
func workspaceDir() string {
	return core.ApmanFolderName
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	} else {
		var l slog.Level
		if err := l.UnmarshalText([]byte(viper.GetString("log_level"))); err == nil {
			level = l
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newTransport(log *slog.Logger) *transport.HTTPTransport {
	cfg := transport.ConfigFromEnv()
	if _, set := os.LookupEnv("APMAN_HTTP_TIMEOUT"); !set {
		if secs := viper.GetInt("timeout_seconds"); secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	return transport.NewHTTPTransport(cfg, transport.WithLogger(log))
}

// loadVariables reads the selected environment file. A missing file yields
// no values; the client then reports which variables are required.
func loadVariables() (map[string]string, error) {
	name := viper.GetString("environment")
	if name == "" {
		return map[string]string{}, nil
	}
	path := storage.EnvironmentPath(workspaceDir(), name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	vars, err := storage.LoadEnvironment(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment '%s': %w", name, err)
	}
	return vars, nil
}

// loadClient compiles the configured collection with the configured
// environment. Extra options are appended after the defaults.
func loadClient(vars map[string]string, opts ...core.Option) (*core.Client, error) {
	path := viper.GetString("collection")
	if path == "" {
		return nil, fmt.Errorf("no collection given: pass --collection or set \"collection\" in %s",
			filepath.Join(core.ApmanFolderName, "config.json"))
	}

	if vars == nil {
		var err error
		if vars, err = loadVariables(); err != nil {
			return nil, err
		}
	}

	log := newLogger()
	base := []core.Option{
		core.WithLogger(log),
		core.WithTransport(newTransport(log)),
	}
	return core.Load(path, vars, append(base, opts...)...)
}

// parseAssignments turns "k=v" (or "k: v" for headers) pairs into a map.
func parseAssignments(pairs []string, seps string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.IndexAny(p, seps)
		if i <= 0 {
			return nil, fmt.Errorf("invalid value %q: expected name%cvalue", p, seps[0])
		}
		out[strings.TrimSpace(p[:i])] = strings.TrimSpace(p[i+1:])
	}
	return out, nil
}

func renderWidth() int {
	if w := viper.GetInt("render_width"); w > 0 {
		return w
	}
	return 100
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
