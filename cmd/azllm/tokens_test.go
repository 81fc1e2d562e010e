package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnv(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestRunTokens_Count(t *testing.T) {
	var out bytes.Buffer

	err := runTokens(context.Background(), []string{"-env", missingEnv(t), "hello", "world"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "2 tokens (text-davinci-003, p50k_base)\n", out.String())
}

func TestRunTokens_Stdin(t *testing.T) {
	var out bytes.Buffer

	err := runTokens(context.Background(), []string{"-env", missingEnv(t)}, strings.NewReader("hello"), &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "1 tokens"), out.String())
}

func TestRunTokens_Empty(t *testing.T) {
	var out bytes.Buffer

	err := runTokens(context.Background(), []string{"-env", missingEnv(t)}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "0 tokens"), out.String())
}

func TestRunTokens_UnknownModel(t *testing.T) {
	var out bytes.Buffer

	err := runTokens(context.Background(), []string{"-env", missingEnv(t), "-model", "no-such-model", "x"}, nil, &out)
	assert.ErrorContains(t, err, "unknown model")
}

func TestRunTokens_IDs(t *testing.T) {
	var out bytes.Buffer

	err := runTokens(context.Background(), []string{"-env", missingEnv(t), "-ids", "hello world"}, nil, &out)
	require.NoError(t, err)

	want := strings.Join([]string{
		"#     id  text",
		`0  31373  "hello"`,
		`1    995  " world"`,
		"2 tokens",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestRenderTokenTable_Empty(t *testing.T) {
	got := renderTokenTable(nil, nil, styler(false))
	assert.Equal(t, "#  id  text\n0 tokens\n", got)
}
