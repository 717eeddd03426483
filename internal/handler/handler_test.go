package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/repository/memory"
	"gotrabandhus/internal/service"
)

func newTestServer(t *testing.T, opts service.Options) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := service.NewTreeService(memory.New(), domain.NewSequenceGenerator("p"), service.NewEventBus(), logger, opts)
	return NewRouter(NewTreeHandler(svc, logger), logger, RouterOptions{})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

const profileBody = `{"name":"Ravi Kumar","email":"ravi@example.com","gender":"M","hide_email":true}`

// seedRoot saves a profile for tree u1 so it has a root member
func seedRoot(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, http.MethodPut, "/api/trees/u1/profile", profileBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, service.Options{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProfileEndpoints(t *testing.T) {
	h := newTestServer(t, service.Options{})

	rec := do(t, h, http.MethodGet, "/api/trees/u1/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/trees/u1/profile", profileBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ProfileResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "u1", resp.Member.ID)
	assert.Equal(t, "Ravi Kumar", resp.Member.Data.String(domain.AttrFirstName))
	assert.False(t, resp.Member.Data.Has("email"))

	rec = do(t, h, http.MethodGet, "/api/trees/u1/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Profile
	decodeBody(t, rec, &p)
	assert.Equal(t, "ravi@example.com", p.Email)
}

func TestSaveProfileValidation(t *testing.T) {
	h := newTestServer(t, service.Options{})

	rec := do(t, h, http.MethodPut, "/api/trees/u1/profile", `{"name":"R","email":"nope","gender":"M"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Details, "name must be at least 2 characters")
	assert.Contains(t, resp.Details, "email must be a valid email")

	rec = do(t, h, http.MethodPut, "/api/trees/u1/profile", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberLifecycle(t *testing.T) {
	h := newTestServer(t, service.Options{})
	seedRoot(t, h)

	// spouse
	rec := do(t, h, http.MethodPost, "/api/trees/u1/members/u1/relatives", `{"relation":"spouse","data":{"first name":"Sita"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var spouse AddRelativeResponse
	decodeBody(t, rec, &spouse)
	require.NotEmpty(t, spouse.ID)

	// child
	rec = do(t, h, http.MethodPost, "/api/trees/u1/members/u1/relatives", `{"relation":"child","data":{"first name":"Arjun","gender":"M"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var child AddRelativeResponse
	decodeBody(t, rec, &child)

	rec = do(t, h, http.MethodGet, "/api/trees/u1/members/"+child.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var node domain.PersonNode
	decodeBody(t, rec, &node)
	assert.Equal(t, "u1", node.Rels.Father)
	assert.Equal(t, spouse.ID, node.Rels.Mother)

	// update
	rec = do(t, h, http.MethodPatch, "/api/trees/u1/members/"+child.ID, `{"data":{"birthday":"2001-04-12"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.PersonNode
	decodeBody(t, rec, &updated)
	assert.Equal(t, "2001-04-12", updated.Data.String(domain.AttrBirthday))
	assert.Equal(t, "Arjun", updated.Data.String(domain.AttrFirstName))

	// validate
	rec = do(t, h, http.MethodGet, "/api/trees/u1/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"violations":[]}`, rec.Body.String())

	// delete
	rec = do(t, h, http.MethodDelete, "/api/trees/u1/members/"+spouse.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/trees/u1/members/"+child.ID, "")
	var orphan domain.PersonNode
	decodeBody(t, rec, &orphan)
	assert.Empty(t, orphan.Rels.Mother)
	assert.Equal(t, "u1", orphan.Rels.Father)
}

func TestStatusMapping(t *testing.T) {
	h := newTestServer(t, service.Options{ProtectRoot: true, StrictImport: true})
	seedRoot(t, h)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown member", http.MethodGet, "/api/trees/u1/members/ghost", "", http.StatusNotFound},
		{"unknown anchor", http.MethodPost, "/api/trees/u1/members/ghost/relatives", `{"relation":"child"}`, http.StatusNotFound},
		{"update unknown", http.MethodPatch, "/api/trees/u1/members/ghost", `{"data":{"a":"b"}}`, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/trees/u1/members/ghost", "", http.StatusNotFound},
		{"bad relation", http.MethodPost, "/api/trees/u1/members/u1/relatives", `{"relation":"cousin"}`, http.StatusBadRequest},
		{"missing relation", http.MethodPost, "/api/trees/u1/members/u1/relatives", `{"data":{}}`, http.StatusBadRequest},
		{"missing update data", http.MethodPatch, "/api/trees/u1/members/u1", `{}`, http.StatusBadRequest},
		{"protected root", http.MethodDelete, "/api/trees/u1/members/u1", "", http.StatusForbidden},
		{"unknown export format", http.MethodGet, "/api/trees/u1/export/xml", "", http.StatusBadRequest},
		{"malformed import", http.MethodPost, "/api/trees/u1/import/json", `{"id":"x"}`, http.StatusBadRequest},
		{"bad strategy", http.MethodPost, "/api/trees/u1/import/json?strategy=append", `[]`, http.StatusBadRequest},
		{"strict import", http.MethodPost, "/api/trees/u1/import/json", `[{"id":"a","data":{},"rels":{"father":"zz"}}]`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStrictImportListsViolations(t *testing.T) {
	h := newTestServer(t, service.Options{StrictImport: true})

	rec := do(t, h, http.MethodPost, "/api/trees/u1/import/json", `[{"id":"a","data":{},"rels":{"father":"zz"}}]`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, domain.ViolationDangling, resp.Violations[0].Kind)
	assert.Equal(t, "zz", resp.Violations[0].TargetID)
}

func TestImportBodyTooLarge(t *testing.T) {
	h := newTestServer(t, service.Options{})
	seedRoot(t, h)

	rec := do(t, h, http.MethodPost, "/api/trees/u1/import/json", strings.Repeat(" ", maxImportBytes+1))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Request body too large", resp.Error)

	rec = do(t, h, http.MethodGet, "/api/trees/u1/members/u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportImport(t *testing.T) {
	h := newTestServer(t, service.Options{})
	seedRoot(t, h)

	rec := do(t, h, http.MethodGet, "/api/trees/u1/export/yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=u1.yaml", rec.Header().Get("Content-Disposition"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	yamlDoc := rec.Body.String()
	assert.Contains(t, yamlDoc, "first name: Ravi Kumar")

	rec = do(t, h, http.MethodGet, "/api/trees/u1/export/yaml", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/trees/copy/import/yaml", yamlDoc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.ImportResult
	decodeBody(t, rec, &result)
	assert.Equal(t, "replace", result.Strategy)
	assert.Equal(t, 1, result.Members)

	rec = do(t, h, http.MethodGet, "/api/trees/copy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []map[string]interface{}
	decodeBody(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0]["id"])

	rec = do(t, h, http.MethodGet, "/api/trees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var trees []map[string]interface{}
	decodeBody(t, rec, &trees)
	assert.Len(t, trees, 2)
}

func TestClearTree(t *testing.T) {
	h := newTestServer(t, service.Options{})
	seedRoot(t, h)

	rec := do(t, h, http.MethodDelete, "/api/trees/u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/trees/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, service.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/trees/u1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
