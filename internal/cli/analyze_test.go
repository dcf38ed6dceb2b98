package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/craftgraph/internal/config"
	"github.com/roach88/craftgraph/internal/craft"
	"github.com/roach88/craftgraph/internal/store"
)

func noEnv(string) (string, bool) { return "", false }

// testRootOptions returns text-format options reading the jsonl log in dir.
func testRootOptions(dir string) *RootOptions {
	return &RootOptions{Format: "text", DataDir: dir, Getenv: noEnv}
}

// steamLog is a small log with a self-giving edge and an edge whose
// inputs are never reachable from the seeds.
var steamLog = []craft.Edge{
	craft.NewEdge("Fire", "Water", "Steam"),
	craft.NewEdge("Steam", "Steam", "Cloud"),
	craft.NewEdge("Cloud", "Cloud", "Cloud"),
	craft.NewEdge("Steam", "Water", "Rain"),
	craft.NewEdge("Earth", "Earth", "Mountain"),
	craft.NewEdge("Mountain", "Mountain", "2 Mountains"),
	craft.NewEdge("Fire", "Steam", "Steam"),
	craft.NewEdge("Lava", "Water", "Stone"),
}

func writeLog(t *testing.T, edges ...craft.Edge) string {
	t.Helper()
	dir := t.TempDir()
	l, err := store.OpenFileLog(dir, config.Default().SeedElements(), false)
	require.NoError(t, err)
	for _, e := range edges {
		require.NoError(t, l.AppendEdge(context.Background(), e))
	}
	require.NoError(t, l.Close())
	return dir
}

// execute runs cmd with args and stdin and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestOrderCommand(t *testing.T) {
	dir := writeLog(t, steamLog...)

	out, err := execute(t, NewOrderCommand(testRootOptions(dir)), "")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "order", []byte(out))
}

func TestOrderCommand_JSON(t *testing.T) {
	dir := writeLog(t, steamLog...)
	opts := testRootOptions(dir)
	opts.Format = "json"

	out, err := execute(t, NewOrderCommand(opts), "")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   OrderResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"Water", "Fire", "Wind", "Earth", "Steam", "Mountain", "Cloud", "Rain", "2 Mountains"},
		resp.Data.Elements)
	require.Len(t, resp.Data.Edges, 5)
	assert.Equal(t, craft.NewEdge("Fire", "Water", "Steam"), resp.Data.Edges[0])
}

func TestOrderCommand_EmptyLog(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, NewOrderCommand(testRootOptions(dir)), "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDepthCommand(t *testing.T) {
	dir := writeLog(t, steamLog...)

	out, err := execute(t, NewDepthCommand(testRootOptions(dir)), "")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "depth", []byte(out))
}

func TestDepthCommand_Table(t *testing.T) {
	dir := writeLog(t, steamLog...)

	out, err := execute(t, NewDepthCommand(testRootOptions(dir)), "", "--table")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "depth_table", []byte(out))
}

func TestDepthCommand_JSON(t *testing.T) {
	dir := writeLog(t, steamLog...)
	opts := testRootOptions(dir)
	opts.Format = "json"

	out, err := execute(t, NewDepthCommand(opts), "")
	require.NoError(t, err)

	var resp struct {
		Data DepthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Witnesses, 5)
	assert.Len(t, resp.Data.Table, 9)
	assert.Contains(t, resp.Data.Table, DepthRow{Name: "Cloud", Depth: 2})
	assert.NotContains(t, resp.Data.Table, DepthRow{Name: "Stone", Depth: 0})
}

func TestReconstructCommand_Stdin(t *testing.T) {
	dir := writeLog(t, steamLog...)
	order, err := execute(t, NewOrderCommand(testRootOptions(dir)), "")
	require.NoError(t, err)

	out, err := execute(t, NewReconstructCommand(testRootOptions(dir)), order, "Rain", "2 Mountains")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "reconstruct", []byte(out))
}

func TestReconstructCommand_FromLog(t *testing.T) {
	dir := writeLog(t, steamLog...)

	for _, via := range []string{ViaOrder, ViaDepth} {
		t.Run(via, func(t *testing.T) {
			out, err := execute(t, NewReconstructCommand(testRootOptions(dir)), "",
				"--from-log", "--via", via, "Rain", "2 Mountains")
			require.NoError(t, err)
			newGoldie(t).Assert(t, "reconstruct", []byte(out))
		})
	}
}

func TestReconstructCommand_SkipsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	stdin := "[\"Fire\", \"Water\", \"Steam\"]\nnot a record\n[\"Steam\"]\n"

	out, err := execute(t, NewReconstructCommand(testRootOptions(dir)), stdin, "Steam")
	require.NoError(t, err)
	assert.Equal(t, "[\"Fire\", \"Water\", \"Steam\"]\n", out)
}

func TestReconstructCommand_UnknownTarget(t *testing.T) {
	dir := writeLog(t, steamLog...)
	opts := testRootOptions(dir)
	opts.Format = "json"

	out, err := execute(t, NewReconstructCommand(opts), "", "--from-log", "Lightning")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUnknownTarget, resp.Error.Code)
}

func TestReconstructCommand_InvalidVia(t *testing.T) {
	dir := writeLog(t, steamLog...)

	_, err := execute(t, NewReconstructCommand(testRootOptions(dir)), "", "--from-log", "--via", "random", "Rain")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --via")
}

func TestReconstructCommand_RequiresTarget(t *testing.T) {
	_, err := execute(t, NewReconstructCommand(testRootOptions(t.TempDir())), "")
	require.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	dir := writeLog(t, steamLog...)

	out, err := execute(t, NewStatsCommand(testRootOptions(dir)), "")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "stats", []byte(out))
}

func TestStatsRow(t *testing.T) {
	tests := []struct {
		name string
		edge craft.Edge
		want string
	}{
		{"self doubling", craft.NewEdge("Cloud", "Cloud", "Cloud"), "Cloud\t1\tCloud\t0\t0\t-\t-\t-\t-"},
		{"doubling", craft.NewEdge("Fire", "Fire", "Sun"), "Fire\t0\tSun\t0\t0\t-\t-\t-\t-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeLog(t, tt.edge)
			out, err := execute(t, NewStatsCommand(testRootOptions(dir)), "")
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestAnalysis_SQLiteBackend(t *testing.T) {
	dbPath := t.TempDir() + "/craftgraph.db"
	s, err := store.OpenSeeded(dbPath, config.Default().SeedElements())
	require.NoError(t, err)
	for _, e := range steamLog {
		require.NoError(t, s.AppendEdge(context.Background(), e))
	}
	require.NoError(t, s.Close())

	opts := &RootOptions{Format: "text", Backend: store.BackendSQLite, DBPath: dbPath, Getenv: noEnv}
	out, err := execute(t, NewOrderCommand(opts), "")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "order", []byte(out))
}
