package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"text", ModeText},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"auto", ModeAuto},
		{"", ModeAuto},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit markdown on terminal", ModeMarkdown, true, ModeMarkdown},
		{"json", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_NonFileIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestHeader(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Header(1, "Relational Algebra")
	r.Header(2, "Plan")
	assert.Contains(t, out.String(), "# Relational Algebra\n")
	assert.Contains(t, out.String(), "## Plan\n")

	r, out, _ = newTestRenderer(ModeText, false)
	r.Header(1, "Relational Algebra")
	assert.Contains(t, out.String(), "Relational Algebra")
	assert.NotContains(t, out.String(), "#")
}

func TestMessages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)
	r.Success("query is valid")
	r.Warning("no catalog configured")
	r.Error("unknown table")

	assert.Contains(t, out.String(), SymbolSuccess+" query is valid")
	assert.Contains(t, errOut.String(), "no catalog configured")
	assert.Contains(t, errOut.String(), SymbolFailure+" unknown table")
	assert.NotContains(t, out.String(), "\x1b[", "piped output must not carry escape codes")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)
	r.StatusLine("query 1", "success", "3 relations")
	r.StatusLine("query 2", "failed", "")

	lines := out.String()
	assert.Contains(t, lines, SymbolSuccess+" query 1 3 relations")
	assert.Contains(t, lines, SymbolFailure+" query 2")
}

func TestCodeBlock(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.CodeBlock("text", "π (Nome) (Cliente)\n")
	assert.Equal(t, "```text\nπ (Nome) (Cliente)\n```\n", out.String())

	r, out, _ = newTestRenderer(ModeText, false)
	r.CodeBlock("", "a\nb")
	assert.Equal(t, "  a\n  b\n", out.String())
}

func TestKeyValue(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.KeyValue("Relations", "2")
	assert.Equal(t, "**Relations:** 2\n", out.String())
}

func TestTable(t *testing.T) {
	headers := []string{"Table", "Columns"}
	rows := [][]string{{"Cliente", "idCliente, Nome"}, {"Pedido", "idPedido"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(headers, rows)
		assert.Contains(t, out.String(), "| Table | Columns |")
		assert.Contains(t, out.String(), "| Cliente | idCliente, Nome |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(headers, rows)
		assert.Contains(t, out.String(), "Cliente")
		assert.Contains(t, out.String(), "┌")
		assert.NotContains(t, out.String(), "| --- |")
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]any{"expression": "π (a) (T)", "ok": true}))
	assert.JSONEq(t, `{"expression":"π (a) (T)","ok":true}`, out.String())
	assert.Contains(t, out.String(), "π", "non-ASCII stays unescaped")
}
