package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestRunStatus_AllPools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pools", r.URL.Path)
		out := []poolStatus{{
			Name:           "api",
			RequestsPerMin: 4,
			Peers: []peerStatus{
				{Name: "a", Weight: 3, EffectiveWeight: 3, Accessed: "never"},
				{Name: "b", Weight: 1, Down: true, Accessed: "3 minutes ago"},
			},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
	defer srv.Close()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range statusCommand.Flags {
		require.NoError(t, f.Apply(set))
	}
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	require.NoError(t, ctx.Set("admin-addr", srv.URL))

	require.NoError(t, runStatus(ctx))
}

func TestRunStatus_SinglePool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pools/api", r.URL.Path)
		out := poolStatus{Name: "api", Peers: []peerStatus{{Name: "a", Weight: 1}}}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}))
	defer srv.Close()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range statusCommand.Flags {
		require.NoError(t, f.Apply(set))
	}
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	require.NoError(t, ctx.Set("admin-addr", srv.URL))
	require.NoError(t, ctx.Set("pool", "api"))

	require.NoError(t, runStatus(ctx))
}

func TestRunStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range statusCommand.Flags {
		require.NoError(t, f.Apply(set))
	}
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	require.NoError(t, ctx.Set("admin-addr", srv.URL))
	require.NoError(t, ctx.Set("pool", "nope"))

	require.Error(t, runStatus(ctx))
}
