package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type recordedCall struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestRepository(t *testing.T, response string) (*GoogleSheetRepository, *[]recordedCall) {
	t.Helper()
	calls := &[]recordedCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&call.body)
		}
		*calls = append(*calls, call)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return &GoogleSheetRepository{service: svc, spreadsheetID: "sheet-1", logger: zap.NewNop()}, calls
}

func TestWriteRowAppends(t *testing.T) {
	repo, calls := newTestRepository(t, `{}`)

	require.NoError(t, repo.WriteRow(context.Background(), "Report!A:B", []interface{}{"a", 1}))
	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Contains(t, call.path, "sheet-1")
	assert.True(t, strings.HasSuffix(call.path, ":append"))
	assert.Contains(t, call.query, "valueInputOption=USER_ENTERED")
	assert.Equal(t, []any{[]any{"a", float64(1)}}, call.body["values"])
}

func TestWriteRowsUpdates(t *testing.T) {
	repo, calls := newTestRepository(t, `{}`)

	rows := [][]interface{}{{"h1", "h2"}, {"x", "y"}}
	require.NoError(t, repo.WriteRows(context.Background(), "Report!A1", rows))
	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)

	require.NoError(t, repo.WriteRows(context.Background(), "Report!A1", nil))
	assert.Len(t, *calls, 1)
}

func TestClearRange(t *testing.T) {
	repo, calls := newTestRepository(t, `{}`)

	require.NoError(t, repo.ClearRange(context.Background(), "Report!A:Z"))
	require.Len(t, *calls, 1)
	assert.True(t, strings.HasSuffix((*calls)[0].path, ":clear"))
}

func TestReadRange(t *testing.T) {
	repo, _ := newTestRepository(t, `{"range":"Report!A1:B2","values":[["a","b"],["c","d"]]}`)

	values, err := repo.ReadRange(context.Background(), "Report!A1:B2")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "d", values[1][1])
}

func TestEmptyRangeRejected(t *testing.T) {
	repo, calls := newTestRepository(t, `{}`)
	ctx := context.Background()

	assert.Error(t, repo.WriteRow(ctx, "", nil))
	assert.Error(t, repo.WriteRows(ctx, "", nil))
	assert.Error(t, repo.ClearRange(ctx, ""))
	_, err := repo.ReadRange(ctx, "")
	assert.Error(t, err)
	assert.Empty(t, *calls)
}
