package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gadeShivani/iso20022-rag/internal/generator"
	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/pipeline"
	"github.com/gadeShivani/iso20022-rag/internal/samples"
	"github.com/gadeShivani/iso20022-rag/pkg/config"
)

const samplePrefix = "sample:"

// app is the state shared by every subcommand once the root has loaded config.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
	kb     *knowledge.Base
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "isorag",
		Short: "Summarise ISO 20022 payment messages with a hybrid of three prompting strategies",
		Long: `isorag classifies ISO 20022 XML messages (pacs.008, pacs.002, camt.053, pain.001),
extracts their key fields and asks an LLM for a business-friendly summary three different
ways, returning the most confident answer.

FILE arguments accept a path, "-" for stdin, or sample:NAME for a built-in sample.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (YAML); environment variables override it")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newClassifyCmd(a),
		newParseCmd(a),
		newPromptsCmd(a),
		newSummarizeCmd(a),
		newAnalyzeCmd(a),
		newEvaluateCmd(a),
		newSampleCmd(),
		newBotCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, a.debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger

	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return err
	}
	a.kb = kb
	if cfg.Knowledge.Path != "" {
		logger.Info("Loaded knowledge base", zap.String("path", cfg.Knowledge.Path))
	}
	return nil
}

func newLogger(cfg config.LogConfig, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// generator wires whichever providers have credentials. Calls for a model whose
// provider is missing fail with generator.ErrProviderNotConfigured.
func (a *app) generator(ctx context.Context) (*generator.Router, error) {
	var openaiGen, geminiGen generator.Generator

	if a.cfg.OpenAI.Enabled() {
		openaiGen = generator.NewOpenAI(generator.OpenAIConfig{
			APIKey:      a.cfg.OpenAI.APIKey,
			BaseURL:     a.cfg.OpenAI.BaseURL,
			MaxTokens:   a.cfg.OpenAI.MaxTokens,
			Temperature: a.cfg.OpenAI.Temperature,
		}, a.logger)
	}
	if a.cfg.Gemini.Enabled() {
		g, err := generator.NewGemini(ctx, generator.GeminiConfig{
			APIKey:      a.cfg.Gemini.APIKey,
			BaseURL:     a.cfg.Gemini.BaseURL,
			MaxTokens:   a.cfg.Gemini.MaxTokens,
			Temperature: a.cfg.Gemini.Temperature,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		geminiGen = g
	}
	if openaiGen == nil && geminiGen == nil {
		a.logger.Warn("No LLM provider configured; set OPENAI_API_KEY or GEMINI_API_KEY")
	}
	return generator.NewRouter(openaiGen, geminiGen, a.cfg.Generation.DefaultModel), nil
}

func (a *app) analyzer(ctx context.Context) (*pipeline.Analyzer, error) {
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.kb, gen,
		pipeline.WithLogger(a.logger),
		pipeline.WithTimeout(a.cfg.Generation.Timeout)), nil
}

func (a *app) model(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Generation.DefaultModel
}

// readInput resolves a FILE argument.
func readInput(cmd *cobra.Command, arg string) (string, error) {
	switch {
	case arg == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(arg, samplePrefix):
		return samples.Get(strings.TrimPrefix(arg, samplePrefix))
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", arg, err)
		}
		return string(data), nil
	}
}
