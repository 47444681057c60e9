package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	modelPath     = filepath.Join("..", "..", "testdata", "northwind", "model.cue")
	recordsPath   = filepath.Join("..", "..", "testdata", "northwind", "products.json")
	requestsDir   = filepath.Join("..", "..", "testdata", "requests")
	scenariosPath = filepath.Join("..", "..", "testdata", "scenarios")
	goldenDir     = filepath.Join("..", "harness", "testdata", "golden")
)

func requestPath(name string) string {
	return filepath.Join(requestsDir, name+".yaml")
}

// execute runs cmd with args and returns stdout and the error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse decodes a JSON CLIResponse and re-decodes its data into v.
func decodeResponse(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	if v != nil && raw.Data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return raw.CLIResponse
}
