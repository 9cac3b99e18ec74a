package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadeShivani/iso20022-rag/internal/samples"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "TELEGRAM_TOKEN", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestClassify(t *testing.T) {
	out, err := run(t, "", "classify", "sample:statement")
	require.NoError(t, err)
	assert.Equal(t, "camt.053\tBankToCustomerStatement\n", out)

	path := filepath.Join(t.TempDir(), "pain.xml")
	require.NoError(t, os.WriteFile(path, []byte(samples.MustGet(samples.PaymentInitiation)), 0o600))
	out, err = run(t, "", "classify", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pain.001"))

	out, err = run(t, samples.MustGet(samples.StatusReport), "classify", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pacs.002"))

	_, err = run(t, "<Document><Unknown/></Document>", "classify", "-")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	out, err := run(t, "", "parse", "sample:statement")
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.Contains(t, out, "CAMT053-20250716")
}

func TestPrompts(t *testing.T) {
	out, err := run(t, "", "prompts", "sample:basic_transfer", "--query", "who is the creditor?")
	require.NoError(t, err)
	for _, header := range []string{"=== simple ===", "=== context ===", "=== reranker ==="} {
		assert.Contains(t, out, header)
	}
	assert.Equal(t, 3, strings.Count(out, "who is the creditor?"))

	out, err = run(t, "", "prompts", "sample:basic_transfer", "--json")
	require.NoError(t, err)
	var reqs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reqs))
	assert.Len(t, reqs, 3)
	assert.Equal(t, "simple", reqs[0]["strategy"])
}

func TestEvaluate(t *testing.T) {
	out, err := run(t, "", "evaluate", "--type", "pacs.002", "Status", "RJCT")
	require.NoError(t, err)

	var result struct {
		Confidence struct {
			Score float64 `json:"score"`
		} `json:"confidence"`
		Evaluation struct {
			Status string `json:"status"`
		} `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Greater(t, result.Confidence.Score, 0.0)
	assert.Equal(t, "success", result.Evaluation.Status)

	_, err = run(t, "", "evaluate", "--type", "pacs.999", "text")
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	out, err := run(t, "", "sample")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(samples.Names(), "\n")+"\n", out)

	out, err = run(t, "", "sample", samples.Statement)
	require.NoError(t, err)
	assert.Equal(t, samples.MustGet(samples.Statement), out)

	_, err = run(t, "", "sample", "nope")
	assert.Error(t, err)
}

func TestSummarize_NoProvider(t *testing.T) {
	_, err := run(t, "", "summarize", "sample:basic_transfer", "--strategy", "simple", "--model", "gpt-4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")

	_, err = run(t, "", "summarize", "sample:basic_transfer", "--strategy", "fancy")
	assert.Error(t, err)
}

func TestBot_RequiresToken(t *testing.T) {
	_, err := run(t, "", "bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram token")
}
