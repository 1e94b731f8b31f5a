package workspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceMarshalRoundTrip(t *testing.T) {
	row := mustRow(t,
		NewPlot("p1", 6, PlotParams{PlotID: "CH8MLJ", HideLegend: true}),
		NewDataGrid("g1", 6, DataGridParams{DataGridID: "MGRID42"}),
	)
	ws := NewWorkspace("Macro Overview", []*Row{row},
		WithID("CWS1"),
		WithAlias("macro-overview"),
		WithDescription("Rates and FX dashboard"),
		WithTags("macro", "rates"),
		WithSelectors(NewSelector("s1", SelectorParams{ContainerIDs: []string{"p1"}, Title: "Region"})),
	)

	data, err := json.Marshal(ws)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	params := doc["parameters"].(map[string]interface{})
	assert.Equal(t, "r(c6($0)c6($1))", params["layout"])
	assert.Len(t, params["components"], 3)

	var decoded Workspace
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "CWS1", decoded.ID())
	assert.Equal(t, "Macro Overview", decoded.Name())
	assert.Equal(t, "macro-overview", decoded.Alias())
	assert.Equal(t, []string{"macro", "rates"}, decoded.Tags())
	require.Len(t, decoded.Rows(), 1)
	require.Len(t, decoded.Selectors(), 1)

	// Second marshal must be byte-identical: the layout string is a
	// bit-exact contract with server-persisted workspaces.
	data2, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(data2))
}

func TestWorkspaceUnmarshalServerDocument(t *testing.T) {
	raw := `{
		"id": "CWS9",
		"name": "FX Pulse",
		"alias": "fx-pulse",
		"parameters": {
			"layout": "r(c8($0)c4($1))r(c12($2))",
			"components": [
				{"id": "p1", "type": "plot", "parameters": {"plotId": "CH1"}},
				{"id": "m1", "type": "monitor", "parameters": {"monitorId": "MON1"}},
				{"id": "a1", "type": "article", "parameters": {"text": "Overnight moves"}},
				{"id": "s1", "type": "selector", "parameters": {"containerIds": ["p1"]}}
			]
		}
	}`

	var ws Workspace
	require.NoError(t, json.Unmarshal([]byte(raw), &ws))

	rows := ws.Rows()
	require.Len(t, rows, 2)
	first := rows[0].Children()
	require.Len(t, first, 2)
	assert.Equal(t, 8, first[0].(Plot).Width())
	assert.Equal(t, 4, first[1].(Monitor).Width())

	sels := ws.Selectors()
	require.Len(t, sels, 1)
	assert.Equal(t, "s1", sels[0].ID())

	layout, err := ws.Layout()
	require.NoError(t, err)
	assert.Equal(t, "r(c8($0)c4($1))r(c12($2))", layout)
}

func TestWorkspaceGrid(t *testing.T) {
	row := mustRow(t,
		mustColumn(t, 4, NewArticle("a1", 0, ArticleParams{Text: "note"})),
		NewPlot("p1", 8, PlotParams{PlotID: "CH1"}),
	)
	ws := NewWorkspace("Grid", []*Row{row})

	grid := ws.Grid()
	require.Len(t, grid, 1)
	require.Len(t, grid[0].Cells, 2)
	assert.Equal(t, 4, grid[0].Cells[0].Width)
	assert.Equal(t, 8, grid[0].Cells[1].Width)
	assert.Equal(t, KindPlot, grid[0].Cells[1].Kind)
	require.Len(t, grid[0].Cells[0].Rows, 1)
	assert.Equal(t, KindArticle, grid[0].Cells[0].Rows[0].Cells[0].Kind)
}

func TestWorkspaceBadLayoutDocument(t *testing.T) {
	raw := `{"name": "Broken", "parameters": {"layout": "r(c6($0)", "components": []}}`
	var ws Workspace
	err := json.Unmarshal([]byte(raw), &ws)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}
