package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "peanuts"
)

type Config struct {
	APIURL      string         `mapstructure:"api-url"`
	UserAgent   string         `mapstructure:"user-agent"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	SessionFile string         `mapstructure:"session-file"`
	Scoring     *ScoringConfig `mapstructure:"scoring"`
	Match       *MatchConfig   `mapstructure:"match"`
}

type ScoringConfig struct {
	// Provider is "platform" (the backend /ai/match-job endpoint) or "gemini".
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MatchConfig struct {
	CVFile   string `mapstructure:"cv-file"`
	Query    string `mapstructure:"query"`
	Location string `mapstructure:"location"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "peanuts is a terminal client for the Peanuts recruitment platform",
		SilenceUsage: true,
	}
)

// Execute executes the root command. An interrupt cancels in-flight requests.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	envs := map[string]string{
		"api-url":                     "PEANUTS_API_URL",
		"session-file":                "PEANUTS_SESSION_FILE",
		"scoring.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("timeout", 90*time.Second)
	viper.SetDefault("scoring.provider", providerPlatform)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is peanuts.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "", "platform api url")
	rootCmd.PersistentFlags().String("session-file", "", "where the login session is stored")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("session-file", rootCmd.PersistentFlags().Lookup("session-file"))
}

// initConfig loads .env and the optional config file. Only an explicit --config must exist.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Scoring == nil {
		config.Scoring = &ScoringConfig{Provider: providerPlatform}
	}
	if config.Scoring.Gemini == nil {
		config.Scoring.Gemini = &GeminiConfig{}
	}
	if config.Match == nil {
		config.Match = &MatchConfig{}
	}

	return config, nil
}
