package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	_ "github.com/rubiojr/gsuggest/pkg/parsers/firefox"
	_ "github.com/rubiojr/gsuggest/pkg/parsers/toolbar"
	"github.com/rubiojr/gsuggest/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suggestServer answers /us, /uk and /slow with toolbar XML; /broken returns
// a 500.
func suggestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		switch r.URL.Path {
		case "/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
				return
			}
		}
		fmt.Fprintf(w, `<toplevel><CompleteSuggestion><suggestion data="%s%s"/></CompleteSuggestion>`+
			`<CompleteSuggestion><suggestion data="%s common"/></CompleteSuggestion></toplevel>`, q, r.URL.Path, q)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server, paths ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{StorageDir: t.TempDir()}
	for _, p := range paths {
		cfg.Regions = append(cfg.Regions, config.Region{
			ID:  p,
			URL: srv.URL + "/" + p + "?q={query}",
		})
	}
	cfg.RequestTimeout = config.Duration{Duration: 300 * time.Millisecond}
	cfg.URLTemplate = config.DefaultURLTemplate
	cfg.Parser = "toolbar"
	cfg.HistorySize = 4
	return cfg
}

func TestRunSearch(t *testing.T) {
	srv := suggestServer(t)
	cfg := testConfig(t, srv, "us", "uk", "broken")
	saveDir := t.TempDir()

	var out, errOut bytes.Buffer
	err := runSearch(context.Background(), newEngineFactory(cfg), searchOptions{
		phrase:  "is it normal",
		saveDir: saveDir,
		out:     &out,
		errOut:  &errOut,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "is it normal/us")
	assert.Contains(t, out.String(), "is it normal/uk")
	assert.Contains(t, out.String(), "is it normal common")
	assert.Contains(t, out.String(), "BROKEN")
	assert.Contains(t, errOut.String(), "100.0%")

	reports, err := filepath.Glob(filepath.Join(saveDir, "is-it-normal_*.txt"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	report, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.Contains(t, string(report), "Domains searched:\n\tUS, UK, BROKEN\n")

	history, err := storage.Open(cfg.DBPath())
	require.NoError(t, err)
	defer history.Close()
	recent, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "is it normal", recent[0].Phrase)
	assert.Len(t, recent[0].Results, 3)
	require.Len(t, recent[0].Failures, 1)
	assert.Equal(t, "transport_error", recent[0].Failures[0].Kind)
}

func TestRunSearchJSONAndTimeout(t *testing.T) {
	srv := suggestServer(t)
	cfg := testConfig(t, srv, "us", "slow")

	var out, errOut bytes.Buffer
	err := runSearch(context.Background(), newEngineFactory(cfg), searchOptions{
		phrase:  "go",
		noStore: true,
		json:    true,
		out:     &out,
		errOut:  &errOut,
	})
	require.NoError(t, err)
	assert.Empty(t, errOut.String(), "progress is not printed in JSON mode")

	var snap coordinator.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	assert.Equal(t, "complete", snap.Status)
	assert.Equal(t, []string{"go/us", "go common"}, snap.Results)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, "SLOW", snap.Failures[0].RegionID)
	assert.Equal(t, "timeout", snap.Failures[0].Kind)

	_, err = os.Stat(cfg.DBPath())
	assert.True(t, os.IsNotExist(err), "--no-store must not create the database")
}

func TestRunSearchEmptyPhrase(t *testing.T) {
	called := false
	err := runSearch(context.Background(), func(bool) (*engine, error) {
		called = true
		return nil, nil
	}, searchOptions{phrase: "  "})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.False(t, called)
}

func TestRunSearchUnknownParser(t *testing.T) {
	srv := suggestServer(t)
	cfg := testConfig(t, srv, "us")
	cfg.Parser = "yaml"

	err := runSearch(context.Background(), newEngineFactory(cfg), searchOptions{
		phrase: "x", noStore: true, out: &bytes.Buffer{}, errOut: &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, core.ErrUnknownParser)
}

func TestRunSearchInterrupted(t *testing.T) {
	srv := suggestServer(t)
	cfg := testConfig(t, srv, "slow")
	cfg.RequestTimeout = config.Duration{Duration: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := runSearch(ctx, newEngineFactory(cfg), searchOptions{
		phrase: "x", noStore: true, out: &bytes.Buffer{}, errOut: &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
