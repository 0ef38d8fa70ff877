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
	"github.com/warp/points-engine/rewards"
)

const exerciseCSV = `payer,points,timestamp
"DANNON",1000,"2020-11-02T14:00:00Z"
"UNILEVER",200,"2020-10-31T11:00:00Z"
"DANNON",-200,"2020-10-31T15:00:00Z"
"MILLER COORS",10000,"2020-11-01T14:00:00Z"
"DANNON",300,"2020-10-31T10:00:00Z"
`

// runCLI executes the root command and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	require.NoError(t, spendCmd.Flags().Set("mode", string(rewards.ConsumeResidual)))
	require.NoError(t, spendCmd.Flags().Set("receipt", "false"))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSpendCommand_PrintsTotals(t *testing.T) {
	path := writeFeed(t, "transactions.csv", exerciseCSV)

	out, _, err := runCLI(t, "spend", path, "5000")
	require.NoError(t, err)
	assert.Equal(t, `{"DANNON":1000,"UNILEVER":0,"MILLER COORS":5300}`, strings.TrimSpace(out))
}

func TestSpendCommand_Insufficient(t *testing.T) {
	// GIVEN: A feed worth 11300 points
	// WHEN: Spending 20000
	// THEN: One user-facing message on stderr, nothing on stdout

	path := writeFeed(t, "transactions.csv", exerciseCSV)

	out, errOut, err := runCLI(t, "spend", path, "20000")
	assert.ErrorIs(t, err, rewards.ErrInsufficientPoints)

	var reported reportedError
	assert.ErrorAs(t, err, &reported)
	assert.Empty(t, out)
	assert.Equal(t, "not enough points: requested 20000, only 11300 available\n", errOut)
	assert.NotContains(t, errOut, "Error:")
}

func TestSpendCommand_Receipt_UsesSnakeCase(t *testing.T) {
	path := writeFeed(t, "transactions.csv", exerciseCSV)

	out, _, err := runCLI(t, "spend", path, "100", "--receipt")
	require.NoError(t, err)

	var receipt map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	assert.Equal(t, float64(100), receipt["requested"])
	assert.Contains(t, receipt, "totals")
	assert.Contains(t, receipt, "deltas")

	debits, ok := receipt["debits"].([]any)
	require.True(t, ok)
	require.Len(t, debits, 1)
	debit := debits[0].(map[string]any)
	assert.Equal(t, false, debit["exhausted"])
	assert.Equal(t, "DANNON", debit["transaction"].(map[string]any)["payer"])
}

func TestSpendCommand_AmountOutOfRange(t *testing.T) {
	path := writeFeed(t, "transactions.csv", exerciseCSV)

	_, _, err := runCLI(t, "spend", path, "2147483648")
	assert.Error(t, err)
}

func TestSpendCommand_BadArguments(t *testing.T) {
	path := writeFeed(t, "transactions.csv", exerciseCSV)

	_, _, err := runCLI(t, "spend", path, "lots")
	assert.Error(t, err)

	_, _, err = runCLI(t, "spend", filepath.Join(t.TempDir(), "missing.csv"), "1")
	assert.Error(t, err)

	_, _, err = runCLI(t, "spend", path)
	assert.Error(t, err)
}
