package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
seeds:
  - {name: Water, glyph: "💧"}
steps: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "steam_and_mountains.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "steam_and_mountains", scenario.Name)
	assert.Equal(t, []string{"Water", "Fire", "Wind", "Earth"}, scenario.SeedNames())
	assert.Len(t, scenario.Oracle, 7)
	assert.Equal(t, [2]string{"Fire", "Water"}, scenario.Requests[0])
	assert.Equal(t, 2, scenario.Steps)
	assert.Equal(t, []string{"Rain", "2 Mountains"}, scenario.Targets)
	assert.Equal(t, DefaultSession, scenario.Session)

	cloud := scenario.Oracle[1]
	assert.Equal(t, "Cloud", cloud.Result)
	assert.True(t, cloud.IsNew)
	assert.Equal(t, FailDecode, scenario.Oracle[4].Error)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, 1, scenario.Steps)
}

func TestParseScenario_KeepsSession(t *testing.T) {
	scenario, err := ParseScenario(strings.NewReader(minimalScenario + "session: fixed-token\n"))
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", scenario.Session)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: minimalScenario + "stepz: 3\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "seeds: [{name: Water}]\nsteps: 1\n",
			wantErr: "name is required",
		},
		{
			name:    "no seeds",
			content: "name: x\nsteps: 1\n",
			wantErr: "seeds list is required",
		},
		{
			name:    "seed without name",
			content: "name: x\nseeds: [{glyph: \"💧\"}]\nsteps: 1\n",
			wantErr: "seeds[0]: name is required",
		},
		{
			name:    "zero steps",
			content: "name: x\nseeds: [{name: Water}]\n",
			wantErr: "steps must be positive",
		},
		{
			name:    "negative budget",
			content: minimalScenario + "max_probes: -1\n",
			wantErr: "max_probes must be non-negative",
		},
		{
			name:    "unknown predicate",
			content: minimalScenario + "doubling_stop: prime\n",
			wantErr: "unknown doubling_stop predicate",
		},
		{
			name:    "unknown disqualify predicate",
			content: minimalScenario + "disqualify: odd\n",
			wantErr: "unknown disqualify predicate",
		},
		{
			name:    "short log edge",
			content: minimalScenario + "log:\n  - [Water, Water, \"\"]\n",
			wantErr: "log[0]",
		},
		{
			name:    "answer without result",
			content: minimalScenario + "oracle:\n  - {pair: [Water, Water]}\n",
			wantErr: "result or error is required",
		},
		{
			name:    "answer with result and error",
			content: minimalScenario + "oracle:\n  - {pair: [Water, Water], result: Lake, error: decode}\n",
			wantErr: "result and error are exclusive",
		},
		{
			name:    "unknown error kind",
			content: minimalScenario + "oracle:\n  - {pair: [Water, Water], error: timeout}\n",
			wantErr: `unknown error kind "timeout"`,
		},
		{
			name:    "request with empty name",
			content: minimalScenario + "requests:\n  - [Water, \"\"]\n",
			wantErr: "requests[0]",
		},
		{
			name:    "unknown assertion",
			content: minimalScenario + "assertions:\n  - type: final_state\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "assertion without type",
			content: minimalScenario + "assertions:\n  - count: 1\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "trace_contains without result",
			content: minimalScenario + "assertions:\n  - type: trace_contains\n    pair: [Water, Water]\n",
			wantErr: "pair and result are required",
		},
		{
			name:    "depth without element",
			content: minimalScenario + "assertions:\n  - type: depth\n    depth: 1\n",
			wantErr: "element is required for depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
