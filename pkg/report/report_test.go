package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-cfg-query/pkg/analysis"
)

const code = `def classify(n):
    if n < 0:
        return "negative"
    return "other"
    print("dead")

def spin(items):
    for item in items:
        if item:
            break
`

func reports(t *testing.T) []analysis.FileReport {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.py")
	require.NoError(t, os.WriteFile(path, []byte(code), 0644))

	out, err := analysis.AnalyzeFiles(context.Background(), []string{path}, 1, analysis.DefaultOptions())
	require.NoError(t, err)
	out[0].Path = "mod.py"
	out[0].Failures = append(out[0].Failures, analysis.Failure{Function: "legacy", Line: 12, Err: errors.New("unsupported parameter syntax")})
	return append(out, analysis.FileReport{Path: "gone.py", Err: errors.New("reading file gone.py: no such file")})
}

func TestDocumentText(t *testing.T) {
	doc := NewDocument(reports(t))
	assert.Equal(t, 2, doc.FailureCount())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "text", doc))
	out := buf.String()

	assert.Contains(t, out, "# mod.py\n")
	assert.Contains(t, out, "=== CFG for function: classify(n) line 1 ===")
	assert.Contains(t, out, "Cyclomatic Complexity: 2")
	assert.Contains(t, out, "  block_0 --true [n < 0]--> block_1\n")
	assert.Contains(t, out, "unreachable_code after block_2: print(\"dead\")")
	assert.Contains(t, out, "skipped: legacy (line 12): unsupported parameter syntax")
	assert.Contains(t, out, "# gone.py\nerror: reading file gone.py: no such file\n")
}

func TestDocumentStructuredFormats(t *testing.T) {
	doc := NewDocument(reports(t))

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, "json", doc))

		var decoded Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.Files, 2)
		assert.Equal(t, "classify", decoded.Files[0].Functions[0].FunctionName)
		assert.Equal(t, []string{"items"}, decoded.Files[0].Functions[1].Params)
		assert.Equal(t, "reading file gone.py: no such file", decoded.Files[1].Error)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, "YAML", doc))

		var decoded Document
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, doc.Files[0].Functions[1].Edges, decoded.Files[0].Functions[1].Edges)
	})

	t.Run("msgpack", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, "msgpack", doc))

		var decoded Document
		require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, doc.Files[0].Functions[0].CyclomaticComplexity, decoded.Files[0].Functions[0].CyclomaticComplexity)
		assert.Equal(t, doc.Files[0].Failures, decoded.Files[0].Failures)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, Encode(&bytes.Buffer{}, "dot", doc))
	})
}

func TestDocumentFilter(t *testing.T) {
	doc := NewDocument(reports(t)).Filter("spin")

	require.Len(t, doc.Files, 1)
	require.Len(t, doc.Files[0].Functions, 1)
	assert.Equal(t, "spin", doc.Files[0].Functions[0].FunctionName)
	assert.Empty(t, NewDocument(reports(t)).Filter("nothing").Files)
}

func TestSummaryText(t *testing.T) {
	s := NewSummary(reports(t))
	require.Len(t, s.Functions, 2)
	assert.Equal(t, 2, s.Failures)
	assert.Equal(t, 1, s.Functions[0].Unreachable)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, "text", s))
	assert.Equal(t, `LOCATION  FUNCTION     BLOCKS  COMPLEXITY
mod.py:1  classify(n)  3       2
mod.py:7  spin(items)  6       3

2 function(s) or file(s) could not be analyzed
`, buf.String())
}
