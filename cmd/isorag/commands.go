package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gadeShivani/iso20022-rag/internal/classifier"
	"github.com/gadeShivani/iso20022-rag/internal/models"
	"github.com/gadeShivani/iso20022-rag/internal/pipeline"
	"github.com/gadeShivani/iso20022-rag/internal/samples"
	"github.com/gadeShivani/iso20022-rag/internal/scoring"
)

const hybridStrategy = "hybrid"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Print the message type of an ISO 20022 document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xmlText, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			t, err := classifier.Classify(xmlText)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t, t.MessageName())
			return nil
		},
	}
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract the fields of a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xmlText, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			msg, err := pipeline.New(a.kb, nil, pipeline.WithLogger(a.logger)).Parse(xmlText)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), msg)
		},
	}
}

func newPromptsCmd(a *app) *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "prompts FILE",
		Short: "Show the prompt each strategy would send, without calling a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xmlText, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			analyzer := pipeline.New(a.kb, nil, pipeline.WithLogger(a.logger))
			msg, err := analyzer.Parse(xmlText)
			if err != nil {
				return err
			}
			reqs, err := analyzer.Prompts(msg, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, reqs)
			}
			for i, r := range reqs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "=== %s ===\n%s\n", r.Strategy, r.Prompt)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "question to answer instead of a general summary")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the requests as JSON, including their context")
	return cmd
}

func newSummarizeCmd(a *app) *cobra.Command {
	var (
		strategyName string
		model        string
		query        string
	)
	cmd := &cobra.Command{
		Use:   "summarize FILE",
		Short: "Summarise a document with one strategy, or all three with --strategy hybrid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xmlText, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			analyzer, err := a.analyzer(ctx)
			if err != nil {
				return err
			}
			msg, err := analyzer.Parse(xmlText)
			if err != nil {
				return err
			}

			if strings.EqualFold(strategyName, hybridStrategy) {
				sel, _, err := analyzer.Hybrid(ctx, msg, a.model(model), query)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "winner: %s\n", sel.Winner)
				fmt.Fprintln(cmd.OutOrStdout(), sel.Response)
				return nil
			}

			s, err := models.ParseStrategy(strategyName)
			if err != nil {
				return err
			}
			text, err := analyzer.Summarize(ctx, msg, s, a.model(model), query)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", hybridStrategy, "simple, context, reranker or hybrid")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name; gpt*/o1/o3/o4 use OpenAI, anything else Gemini")
	cmd.Flags().StringVarP(&query, "query", "q", "", "question to answer instead of a general summary")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		model string
		query string
	)
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run the hybrid pipeline and print the full report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xmlText, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			analyzer, err := a.analyzer(cmd.Context())
			if err != nil {
				return err
			}
			report, err := analyzer.Analyze(cmd.Context(), xmlText, a.model(model), query)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name; gpt*/o1/o3/o4 use OpenAI, anything else Gemini")
	cmd.Flags().StringVarP(&query, "query", "q", "", "question to answer instead of a general summary")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "evaluate --type TYPE TEXT...",
		Short: "Score a response text for a message type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseMessageType(typeName)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if text == "-" {
				if text, err = readInput(cmd, "-"); err != nil {
					return err
				}
			}

			analyzer := pipeline.New(a.kb, nil, pipeline.WithLogger(a.logger))
			return writeJSON(cmd.OutOrStdout(), struct {
				Confidence scoring.Breakdown  `json:"confidence"`
				Evaluation scoring.Evaluation `json:"evaluation"`
			}{
				Confidence: analyzer.Score(text, t),
				Evaluation: analyzer.Evaluate(text, t),
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "message type, e.g. pacs.008")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample [NAME]",
		Short: "List the built-in sample documents, or print one",
		Args:  cobra.MaximumNArgs(1),
		// Samples need neither config nor logging.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range samples.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			xmlText, err := samples.Get(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, xmlText)
			return err
		},
	}
}
