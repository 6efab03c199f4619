package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/logger"
	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "FHIRQ"
	configFileName = ".fhirq"
)

// Config keys shared by flags, FHIRQ_* variables and the config file.
const (
	keyLexicon     = "lexicon"
	keyLexiconName = "lexicon-name"
	keyBaseURL     = "base-url"
	keyAddr        = "addr"
	keyCacheTTL    = "cache-ttl"
	keyCORSOrigins = "cors-origins"
	keyMaxQueryLen = "max-query-length"
	keyServe       = "serve"
	keyRestart     = "restart-delay"
)

var mainLogger = logger.NewLogger("Main")

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "fhirq",
		Short: "fhirq turns natural language healthcare questions into FHIR searches",
		Long: `fhirq analyzes free-text healthcare queries with a rule-based lexicon and
reports entities, intent, urgency, a FHIR search and a clinical interpretation.

It runs as an HTTP API (serve), as a RabbitMQ batch worker (worker) or once
from the command line (analyze).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fhirq.yaml)")
	flags.String(keyLexicon, "", "lexicon YAML file or directory (default is the built-in lexicon)")
	flags.String(keyLexiconName, "default", "lexicon to use when --lexicon is a directory")
	flags.String(keyBaseURL, "", "FHIR server base URL used in generated endpoints")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(newServeCmd(v), newWorkerCmd(v), newAnalyzeCmd(v))
	rootCmd.SetErr(os.Stderr)
	return rootCmd
}

// initConfig reads the config file and FHIRQ_ variables.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home)
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}
	mainLogger.Info().Str("config", v.ConfigFileUsed()).Msg("Using config file")
	return nil
}

func loadLexicon(v *viper.Viper) (*lexicon.Lexicon, error) {
	path := v.GetString(keyLexicon)
	if path == "" {
		return lexicon.Default(), nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return lexicon.Load(path)
	}

	lexicons, err := lexicon.LoadDir(path)
	if err != nil {
		return nil, err
	}
	name := v.GetString(keyLexiconName)
	lex, ok := lexicons[name]
	if !ok {
		return nil, fmt.Errorf("lexicon %q not found in %s", name, path)
	}
	return lex, nil
}

func newAnalyzer(v *viper.Viper, now func() time.Time) (*pipeline.Analyzer, error) {
	lex, err := loadLexicon(v)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	opts := []pipeline.Option{pipeline.WithClock(now)}
	if baseURL := v.GetString(keyBaseURL); baseURL != "" {
		opts = append(opts, pipeline.WithBaseURL(baseURL))
	}
	analyzer, err := pipeline.NewAnalyzer(lex, opts...)
	if err != nil {
		return nil, err
	}
	mainLogger.Info().
		Str("lexicon_version", lex.Version()).
		Str("fingerprint", lex.Fingerprint()).
		Msg("Analyzer ready")
	return analyzer, nil
}
