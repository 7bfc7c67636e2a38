package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/newsbrief/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "newsbrief",
	Short: "NewsBrief: a news collection and narration service",
	Long: `NewsBrief collects news articles per category on a schedule, deduplicates
them against a 24h retention window, summarizes each article, and serves the
result through MCP tools with on-demand audio narration.

Commands:
  collect  Run a single collection pass and exit
  serve    Start the scheduler and the MCP server`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/newsbrief")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// NEWSBRIEF_SEARCH_API_KEY -> search.api_key
	viper.SetEnvPrefix("NEWSBRIEF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("search.endpoint", "NEWSBRIEF_SEARCH_ENDPOINT")
	viper.BindEnv("search.api_key", "NEWSBRIEF_SEARCH_API_KEY")
	viper.BindEnv("summarizer.base_url", "NEWSBRIEF_SUMMARIZER_BASE_URL")
	viper.BindEnv("summarizer.model", "NEWSBRIEF_SUMMARIZER_MODEL")
	viper.BindEnv("summarizer.api_key", "NEWSBRIEF_SUMMARIZER_API_KEY")
	viper.BindEnv("speech.base_url", "NEWSBRIEF_SPEECH_BASE_URL")
	viper.BindEnv("speech.model", "NEWSBRIEF_SPEECH_MODEL")
	viper.BindEnv("speech.voice", "NEWSBRIEF_SPEECH_VOICE")
	viper.BindEnv("speech.api_key", "NEWSBRIEF_SPEECH_API_KEY")
	viper.BindEnv("storage.backend", "NEWSBRIEF_STORAGE_BACKEND")
	viper.BindEnv("storage.dir", "NEWSBRIEF_STORAGE_DIR")
	viper.BindEnv("elasticsearch.addresses", "NEWSBRIEF_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "NEWSBRIEF_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "NEWSBRIEF_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "NEWSBRIEF_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("objects.endpoint", "NEWSBRIEF_OBJECTS_ENDPOINT")
	viper.BindEnv("objects.bucket", "NEWSBRIEF_OBJECTS_BUCKET")
	viper.BindEnv("objects.access_key_id", "NEWSBRIEF_OBJECTS_ACCESS_KEY_ID")
	viper.BindEnv("objects.secret_access_key", "NEWSBRIEF_OBJECTS_SECRET_ACCESS_KEY")
	viper.BindEnv("collector.interval", "NEWSBRIEF_COLLECTOR_INTERVAL")
	viper.BindEnv("collector.categories", "NEWSBRIEF_COLLECTOR_CATEGORIES")
	viper.BindEnv("mcp.name", "NEWSBRIEF_MCP_NAME")
	viper.BindEnv("mcp.version", "NEWSBRIEF_MCP_VERSION")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: list values as comma-separated strings from env
	if addrs := os.Getenv("NEWSBRIEF_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
	if categories := os.Getenv("NEWSBRIEF_COLLECTOR_CATEGORIES"); categories != "" {
		cfg.Collector.Categories = strings.Split(categories, ",")
	}
}
