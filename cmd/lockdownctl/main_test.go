package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]string{"sensor=p-3", "temp_c=9.1", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sensor": "p-3", "temp_c": "9.1", "note": "a=b"}, meta)

	meta, err = parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = parseMetadata([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseMetadata([]string{"=x"})
	assert.Error(t, err)
}

func TestPrintStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"phase": "OPEN"})
	require.NoError(t, err)

	var buf bytes.Buffer
	statusCmd.SetOut(&buf)
	require.NoError(t, printStruct(statusCmd, s))
	assert.Contains(t, buf.String(), `"phase"`)
	assert.Contains(t, buf.String(), `"OPEN"`)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"status"},
		{"can-serve"},
		{"phase", "set"},
		{"phase", "rollover"},
		{"ccp", "report"},
		{"ccp", "resolve"},
		{"ccp", "list"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
