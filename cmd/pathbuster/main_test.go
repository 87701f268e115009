package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStageFilterRegexSplitsByPrefix(t *testing.T) {
	patterns := []string{"V:^admin$", "F:^secret$", "no-prefix"}

	validate := stageFilterRegex(patterns, "V:")
	require.Len(t, validate, 2)
	assert.Equal(t, "^admin$", validate[0])
	assert.Equal(t, "no-prefix", validate[1])

	fingerprint := stageFilterRegex(patterns, "F:")
	require.Len(t, fingerprint, 2)
	assert.Equal(t, "^secret$", fingerprint[0])
	assert.Equal(t, "no-prefix", fingerprint[1])
}

func TestRunScanEndToEndWritesJSONReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "etc"):
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("internal file contents entirely unlike the homepage, quite long indeed"))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("home"))
		}
	}))
	defer srv.Close()

	logger = zap.NewNop()

	payloadsFile := filepath.Join(t.TempDir(), "payloads.txt")
	require.NoError(t, os.WriteFile(payloadsFile, []byte("../etc\n"), 0644))

	outPath := filepath.Join(t.TempDir(), "report.json")
	missingConfig := filepath.Join(t.TempDir(), "does-not-exist.yml")

	rootCmd.SetArgs([]string{
		"-u", srv.URL + "/app/",
		"--cfg", missingConfig,
		"--pl", payloadsFile,
		"-B",
		"-l", "0",
		"--vs", "200",
		"-o", outPath,
	})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err, "expected report file to be written")
	assert.Contains(t, string(data), "matches")
}
