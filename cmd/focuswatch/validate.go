package main

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goodtune/focuswatch/internal/config"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the focuswatch configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation failed: %v\n", err)
		return err
	}

	// Check for unknown keys (always, not just with --dump)
	unknownKeys, err := findUnknownKeys(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "⚠️  Warning: Could not check for unknown keys: %v\n", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "✅ Configuration is valid: %s\n", configPath)

	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)
		fmt.Fprintln(os.Stdout)
		_, _ = red.Fprintf(os.Stdout, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(os.Stdout, "   - %s\n", key)
		}
		fmt.Fprintln(os.Stdout, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	if validateDump {
		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
		_, _ = fmt.Fprintln(os.Stdout, "FULL CONFIGURATION (values different from defaults are highlighted)")
		_, _ = fmt.Fprintln(os.Stdout, strings.Repeat("=", 80))

		dumpConfig(os.Stdout, cfg, getDefaultConfig())

		_, _ = fmt.Fprintln(os.Stdout, "\n"+strings.Repeat("=", 80))
	}

	return nil
}

// getDefaultConfig creates a configuration with default values
func getDefaultConfig() *config.Config {
	v := viper.New()
	config.SetDefaults(v)

	var cfg config.Config
	_ = v.Unmarshal(&cfg)

	return &cfg
}

// findUnknownKeys loads the config file and checks for unknown keys.
// A missing file has no unknown keys.
func findUnknownKeys(configPath string) ([]string, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := getValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	return unknown, nil
}

// getValidKeys returns the set of keys that have a default.
func getValidKeys() map[string]bool {
	v := viper.New()
	config.SetDefaults(v)

	keys := make(map[string]bool)
	for _, key := range v.AllKeys() {
		keys[key] = true
	}
	return keys
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(w io.Writer, cfg, defaultCfg *config.Config) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	_, _ = cyan.Fprintln(w, "\n[server]")
	dumpField(w, "  control_addr", cfg.Server.ControlAddr, defaultCfg.Server.ControlAddr, yellow, green)
	dumpField(w, "  metrics_addr", cfg.Server.MetricsAddr, defaultCfg.Server.MetricsAddr, yellow, green)
	dumpField(w, "  metrics_enabled", cfg.Server.MetricsEnabled, defaultCfg.Server.MetricsEnabled, yellow, green)

	_, _ = cyan.Fprintln(w, "\n[storage]")
	dumpField(w, "  type", cfg.Storage.Type, defaultCfg.Storage.Type, yellow, green)
	dumpField(w, "  path", cfg.Storage.Path, defaultCfg.Storage.Path, yellow, green)
	_, _ = cyan.Fprintln(w, "  [storage.redis]")
	dumpField(w, "    host", cfg.Storage.Redis.Host, defaultCfg.Storage.Redis.Host, yellow, green)
	dumpField(w, "    port", cfg.Storage.Redis.Port, defaultCfg.Storage.Redis.Port, yellow, green)
	dumpField(w, "    password", redactPassword(cfg.Storage.Redis.Password), redactPassword(defaultCfg.Storage.Redis.Password), yellow, green)
	dumpField(w, "    db", cfg.Storage.Redis.DB, defaultCfg.Storage.Redis.DB, yellow, green)
	dumpField(w, "    pool_size", cfg.Storage.Redis.PoolSize, defaultCfg.Storage.Redis.PoolSize, yellow, green)
	dumpField(w, "    min_idle_conns", cfg.Storage.Redis.MinIdleConns, defaultCfg.Storage.Redis.MinIdleConns, yellow, green)
	dumpField(w, "    dial_timeout", cfg.Storage.Redis.DialTimeout, defaultCfg.Storage.Redis.DialTimeout, yellow, green)
	dumpField(w, "    read_timeout", cfg.Storage.Redis.ReadTimeout, defaultCfg.Storage.Redis.ReadTimeout, yellow, green)
	dumpField(w, "    write_timeout", cfg.Storage.Redis.WriteTimeout, defaultCfg.Storage.Redis.WriteTimeout, yellow, green)
	dumpField(w, "    key_prefix", cfg.Storage.Redis.KeyPrefix, defaultCfg.Storage.Redis.KeyPrefix, yellow, green)

	_, _ = cyan.Fprintln(w, "\n[timer]")
	dumpField(w, "  tick_interval", cfg.Timer.TickInterval, defaultCfg.Timer.TickInterval, yellow, green)
	dumpField(w, "  save_interval", cfg.Timer.SaveInterval, defaultCfg.Timer.SaveInterval, yellow, green)
	dumpField(w, "  persist_default", cfg.Timer.PersistDefault, defaultCfg.Timer.PersistDefault, yellow, green)

	_, _ = cyan.Fprintln(w, "\n[stats]")
	dumpField(w, "  cache_size", cfg.Stats.CacheSize, defaultCfg.Stats.CacheSize, yellow, green)

	_, _ = cyan.Fprintln(w, "\n[logging]")
	dumpField(w, "  level", cfg.Logging.Level, defaultCfg.Logging.Level, yellow, green)
	dumpField(w, "  format", cfg.Logging.Format, defaultCfg.Logging.Format, yellow, green)
}

// dumpField prints a field with color if it differs from default
func dumpField(w io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	valueStr := fmt.Sprintf("%v", value)

	if reflect.DeepEqual(value, defaultValue) {
		_, _ = defaultColor.Fprintf(w, "%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Fprintf(w, "%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
