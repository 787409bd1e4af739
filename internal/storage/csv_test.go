package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"Engineers", "linkedin_names_Engineers.csv"},
		{"Senior Go  Engineers", "linkedin_names_Senior_Go_Engineers.csv"},
		{"tab\tand\nnewline", "linkedin_names_tab_and_newline.csv"},
		{"a/b", "linkedin_names_a_b.csv"},
		{"Go\u00a0Engineers\u2003Berlin", "linkedin_names_Go_Engineers_Berlin.csv"},
		{"ideographic\u3000space", "linkedin_names_ideographic_space.csv"},
		{"vertical\vtab", "linkedin_names_vertical_tab.csv"},
		{"\ufeffbom", "linkedin_names__bom.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(DefaultPrefix, tt.key))
		})
	}
}

func TestCSVWriter_Write(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "out")
	w := NewCSVWriter(dir, DefaultPrefix, nil)

	t.Run("header and one row per value", func(t *testing.T) {
		values := []string{"Ada Lovelace", "Hopper, Grace", `Quote "Q" Person`}
		require.NoError(t, w.Write(ctx, "Go Engineers", values))

		rows := readCSV(t, filepath.Join(dir, "linkedin_names_Go_Engineers.csv"))
		assert.Equal(t, [][]string{
			{"Name"},
			{"Ada Lovelace"},
			{"Hopper, Grace"},
			{`Quote "Q" Person`},
		}, rows)
	})

	t.Run("overwrites previous file", func(t *testing.T) {
		require.NoError(t, w.Write(ctx, "Go Engineers", []string{"only"}))

		rows := readCSV(t, w.Path("Go Engineers"))
		assert.Equal(t, [][]string{{"Name"}, {"only"}}, rows)

		_, err := os.Stat(w.Path("Go Engineers") + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("empty set writes header only", func(t *testing.T) {
		require.NoError(t, w.Write(ctx, "empty", nil))
		assert.Equal(t, [][]string{{"Name"}}, readCSV(t, w.Path("empty")))
	})
}
