package main

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/health"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

func TestMonitorApp(t *testing.T) {
	app := newMonitorApp(health.NewChecker(logger.Nop(), nil, t.TempDir()))

	tests := []struct {
		path     string
		contains string
	}{
		{"/health", `"status":"healthy"`},
		{"/metrics", "receiptgen_worker_concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, 200, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestReferenceTime(t *testing.T) {
	o := &options{now: "2024-02-29"}
	ts, err := o.referenceTime()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", ts.Format("2006-01-02"))

	o.now = "29/02/2024"
	_, err = o.referenceTime()
	assert.Error(t, err)
}

func TestGenerationFlags_Revalidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		workers bool
		wantErr bool
	}{
		{"count override", []string{"--count", "12", "--start", "4"}, false, false},
		{"negative count", []string{"--count", "-5"}, false, true},
		{"negative start", []string{"--start", "-1"}, false, true},
		{"zero workers", []string{"--workers", "0"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OUTPUT_DIR", t.TempDir())
			cfg, err := config.Load()
			require.NoError(t, err)

			var gf generationFlags
			cmd := &cobra.Command{Use: "test"}
			gf.register(cmd)
			if tt.workers {
				cmd.Flags().IntVarP(&gf.workers, "workers", "w", 1, "")
			}
			require.NoError(t, cmd.Flags().Parse(tt.args))

			err = gf.apply(cmd, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 12, cfg.Generation.Count)
			assert.Equal(t, 4, cfg.Generation.StartIndex)
		})
	}
}
