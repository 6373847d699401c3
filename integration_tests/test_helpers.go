package integration_tests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/gsuggest/pkg/api"
	"github.com/rubiojr/gsuggest/pkg/catalog"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/coordinator"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/realtime"
	"github.com/rubiojr/gsuggest/pkg/storage"
	"github.com/rubiojr/gsuggest/pkg/transport"
	"github.com/stretchr/testify/require"

	_ "github.com/rubiojr/gsuggest/pkg/parsers/toolbar"
)

// NewSuggestUpstream serves toolbar payloads under one path per behaviour:
//
//	/us, /uk  two suggestions each, one shared between them
//	/fr       ISO-8859-1 encoded payload
//	/bad      malformed XML
//	/down     503
//	/slow     blocks until the client gives up
func NewSuggestUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	regional := func(tag string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query().Get("q")
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprintf(w, `<toplevel><CompleteSuggestion><suggestion data="%s %s"/></CompleteSuggestion>`+
				`<CompleteSuggestion><suggestion data="%s tutorial"/></CompleteSuggestion></toplevel>`, q, tag, q)
		}
	}
	mux.HandleFunc("/us", regional("us"))
	mux.HandleFunc("/uk", regional("uk"))
	mux.HandleFunc("/fr", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
		body := `<?xml version="1.0" encoding="ISO-8859-1"?><toplevel>` +
			`<CompleteSuggestion><suggestion data="` + r.URL.Query().Get("q") + " caf\xe9" + `"/></CompleteSuggestion></toplevel>`
		w.Write([]byte(body))
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<toplevel><CompleteSuggestion>"))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// WriteTestConfig writes a config file with one region per {id, path} pair,
// each pointing at that path on upstream, and returns its path.
func WriteTestConfig(t *testing.T, dir, upstream string, timeout time.Duration, regions [][2]string) string {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "storage_dir = %q\n", filepath.Join(dir, "data"))
	fmt.Fprintf(&b, "request_timeout = %q\n", timeout.String())
	b.WriteString("parser = \"toolbar\"\n")
	b.WriteString("history_size = 4\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "\n[[regions]]\nid = %q\ndomain = \".test\"\nurl = %q\n", r[0], upstream+r[1]+"?q={query}")
	}

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0600))
	return path
}

// Stack is a fully wired search service as the serve command builds it.
type Stack struct {
	Config      *config.Config
	Coordinator *coordinator.Coordinator
	Hub         *realtime.Hub
	History     *storage.History
	API         *httptest.Server
}

// NewStack loads configPath and wires catalog, HTTP transport, coordinator,
// history and API together. Finished rounds are stored.
func NewStack(t *testing.T, configPath string) *Stack {
	t.Helper()

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cat, err := catalog.FromConfig(cfg)
	require.NoError(t, err)

	parser, err := core.GetGlobalRegistry().Parser(cfg.Parser)
	require.NoError(t, err)

	history, err := storage.Open(cfg.DBPath())
	require.NoError(t, err)

	s := &Stack{Config: cfg, Hub: realtime.NewHub(256), History: history}
	store := func(round *coordinator.Round) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := history.SaveRound(ctx, storage.RecordFromSnapshot(round.Snapshot(), cat.RegionIDs()))
		if err != nil {
			t.Errorf("storing round %d: %v", round.Generation(), err)
		}
	}

	s.Coordinator = coordinator.New(cat, transport.New(), parser,
		coordinator.WithRequestTimeout(cfg.RequestTimeout.Duration),
		coordinator.WithHistorySize(cfg.HistorySize),
		coordinator.WithEventSink(s.Hub.Broadcast),
		coordinator.WithOnRoundComplete(store),
	)
	s.API = httptest.NewServer(api.NewServer(s.Coordinator, s.Hub, history).Handler())

	t.Cleanup(func() {
		s.API.Close()
		s.Coordinator.Close()
		s.Hub.Close()
		history.Close()
	})
	return s
}

// WaitRound blocks until the round with generation is terminal.
func (s *Stack) WaitRound(t *testing.T, generation uint64) *coordinator.Round {
	t.Helper()

	round, err := s.Coordinator.Round(generation)
	require.NoError(t, err)
	select {
	case <-round.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("round %d did not finish", generation)
	}
	return round
}
