package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobhunter"
)

type Config struct {
	ProfileFile string           `mapstructure:"profile-file"`
	ExcludeFile string           `mapstructure:"exclude-file"`
	UserAgent   string           `mapstructure:"user-agent"`
	Sources     *SourcesConfig   `mapstructure:"sources"`
	Exclude     *ExcludeConfig   `mapstructure:"exclude"`
	AI          *AIConfig        `mapstructure:"ai"`
	Recommend   *RecommendConfig `mapstructure:"recommend"`
}

type SourcesConfig struct {
	// Enabled lists connectors in merge order.
	Enabled    []string          `mapstructure:"enabled"`
	Throttle   time.Duration     `mapstructure:"throttle"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Greenhouse *GreenhouseConfig `mapstructure:"greenhouse"`
	Headhunter *HeadhunterConfig `mapstructure:"headhunter"`
}

type GreenhouseConfig struct {
	Boards []string `mapstructure:"boards"`
}

type HeadhunterConfig struct {
	Areas     []int  `mapstructure:"areas"`
	TokenFile string `mapstructure:"token-file"`
}

type ExcludeConfig struct {
	Companies []string `mapstructure:"companies"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Concurrency  int           `mapstructure:"concurrency"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
}

// RecommendConfig.Threshold stays nil when unset so an explicit 0 is kept.
type RecommendConfig struct {
	MaxRoles     int  `mapstructure:"max-roles"`
	Threshold    *int `mapstructure:"threshold"`
	MaxPerSource int  `mapstructure:"max-per-source"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobhunter searches several job boards at once and ranks postings against your profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"profile-file":                  "JOBHUNTER_PROFILE_FILE",
		"exclude-file":                  "JOBHUNTER_EXCLUDE_FILE",
		"ai.gemini.api-key-file":        "GEMINI_API_KEY_FILE",
		"ai.openai.api-key-file":        "OPENAI_API_KEY_FILE",
		"sources.headhunter.token-file": "HH_TOKEN_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobhunter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("profile-file", "p", "", "candidate profile in yaml or json. Default is unset.")
	rootCmd.PersistentFlags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("profile-file", rootCmd.PersistentFlags().Lookup("profile-file"))
	viper.BindPFlag("exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional. An explicit one must be readable.
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
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	config.setDefaults()

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Sources == nil {
		c.Sources = &SourcesConfig{}
	}
	if len(c.Sources.Enabled) == 0 {
		c.Sources.Enabled = defaultSources
	}
	if c.Sources.Greenhouse == nil {
		c.Sources.Greenhouse = &GreenhouseConfig{}
	}
	if c.Sources.Headhunter == nil {
		c.Sources.Headhunter = &HeadhunterConfig{}
	}
	if c.Exclude == nil {
		c.Exclude = &ExcludeConfig{}
	}
	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	if c.AI.Gemini == nil {
		c.AI.Gemini = &GeminiConfig{}
	}
	if c.AI.OpenAI == nil {
		c.AI.OpenAI = &OpenAIConfig{}
	}
	if c.Recommend == nil {
		c.Recommend = &RecommendConfig{}
	}
}
