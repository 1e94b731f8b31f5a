package workspaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsquant/marquee-go/internal/session"
	"github.com/gsquant/marquee-go/internal/workspace"
)

const workspaceDoc = `{
	"id": "CWS1",
	"name": "Macro Overview",
	"alias": "macro-overview",
	"parameters": {
		"layout": "r(c6($0)c6($1))",
		"components": [
			{"id": "p1", "type": "plot", "parameters": {"plotId": "CH1"}},
			{"id": "g1", "type": "datagrid", "parameters": {"dataGridId": "MG1"}}
		]
	}
}`

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewService(session.New(session.Config{
		BaseURL:     srv.URL,
		Token:       "t",
		BackoffBase: time.Millisecond,
	}))
}

func TestGetDecodesWorkspace(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/CWS1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(workspaceDoc))
	})
	svc := newTestService(t, mux)

	ws, err := svc.Get(context.Background(), "CWS1")
	require.NoError(t, err)
	assert.Equal(t, "Macro Overview", ws.Name())
	require.Len(t, ws.Rows(), 1)

	layout, err := ws.Layout()
	require.NoError(t, err)
	assert.Equal(t, "r(c6($0)c6($1))", layout)
}

func TestGetByAlias(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/alias/macro-overview", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(workspaceDoc))
	})
	svc := newTestService(t, mux)

	ws, err := svc.GetByAlias(context.Background(), "macro-overview")
	require.NoError(t, err)
	assert.Equal(t, "CWS1", ws.ID())
}

func TestGetNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/CWSX", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorCode":"WSP404","message":"not found"}`))
	})
	svc := newTestService(t, mux)

	_, err := svc.Get(context.Background(), "CWSX")
	require.Error(t, err)
	assert.True(t, session.IsNotFound(err))
}

func TestCreateRoundTripsDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		// The server assigns the ID and echoes the document back.
		var doc map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		doc["id"] = "CWS7"
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	})
	svc := newTestService(t, mux)

	row, err := workspace.NewRow(
		workspace.NewPlot("p1", 0, workspace.PlotParams{PlotID: "CH1"}),
	)
	require.NoError(t, err)
	ws := workspace.NewWorkspace("New Board", []*workspace.Row{row}, workspace.WithAlias("new-board"))

	created, err := svc.Create(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, "CWS7", created.ID())
	assert.Equal(t, "New Board", created.Name())

	layout, err := created.Layout()
	require.NoError(t, err)
	assert.Equal(t, "r(c12($0))", layout)
}

func TestUpdateRequiresID(t *testing.T) {
	svc := NewService(session.New(session.Config{BaseURL: "http://unused", Token: "t"}))
	ws := workspace.NewWorkspace("No ID", nil)

	_, err := svc.Update(context.Background(), ws)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing ID")
}

func TestDelete(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/CWS1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = true
		w.WriteHeader(http.StatusOK)
	})
	svc := newTestService(t, mux)

	require.NoError(t, svc.Delete(context.Background(), "CWS1"))
	assert.True(t, deleted)
}
