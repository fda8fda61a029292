package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zeptools/certmerge/db/kvdb/impls/memory"
	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/sec"
	"github.com/zeptools/certmerge/templates"
	"github.com/zeptools/certmerge/throttle"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newServer(t *testing.T, auth *BearerAuth) *httptest.Server {
	t.Helper()
	h := &Handler{Templates: templates.NewRepository(&memory.Client{}), Auth: auth}
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body []byte, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestTemplatesCRUD(t *testing.T) {
	srv := newServer(t, nil)

	res := do(t, http.MethodPost, srv.URL+"/api/templates", []byte(`{"name":"Course","canvasSize":{"name":"A4","width":794,"height":1123},"elements":[]}`), "")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", res.StatusCode)
	}
	var created elements.Template
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Name != "Course" {
		t.Fatalf("created = %+v", created)
	}

	res = do(t, http.MethodGet, srv.URL+"/api/templates", nil, "")
	var list []elements.Template
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	if res = do(t, http.MethodGet, srv.URL+"/api/templates/"+created.ID, nil, ""); res.StatusCode != http.StatusOK {
		t.Errorf("get status = %d", res.StatusCode)
	}
	if res = do(t, http.MethodDelete, srv.URL+"/api/templates/"+created.ID, nil, ""); res.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", res.StatusCode)
	}
	if res = do(t, http.MethodGet, srv.URL+"/api/templates/"+created.ID, nil, ""); res.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", res.StatusCode)
	}
}

func TestCreateTemplateRejects(t *testing.T) {
	srv := newServer(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"no name", `{"name":"","elements":[]}`},
		{"unknown element", `{"name":"x","elements":[{"type":"video"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, http.MethodPost, srv.URL+"/api/templates", []byte(tt.body), "")
			if res.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", res.StatusCode)
			}
		})
	}
}

func TestImportCSV(t *testing.T) {
	srv := newServer(t, nil)
	body := []byte("Name,Course\nAda,Math\nLin,Art\n")
	res := do(t, http.MethodPost, srv.URL+"/api/imports?filename=people.csv", body, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var got importResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got.Columns, ",") != "Name,Course" || len(got.Rows) != 2 {
		t.Fatalf("import = %+v", got)
	}
	if got.Rows[0]["Name"] != "Ada" {
		t.Errorf("row 0 = %v", got.Rows[0])
	}
	if len(got.Mappings) == 0 {
		t.Error("expected default mappings")
	}

	if res = do(t, http.MethodPost, srv.URL+"/api/imports?filename=people.pdf", body, ""); res.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("pdf status = %d", res.StatusCode)
	}
	if res = do(t, http.MethodPost, srv.URL+"/api/imports", body, ""); res.StatusCode != http.StatusBadRequest {
		t.Errorf("missing filename status = %d", res.StatusCode)
	}
	if res = do(t, http.MethodPost, srv.URL+"/api/imports?filename=a.csv&header=maybe", body, ""); res.StatusCode != http.StatusBadRequest {
		t.Errorf("bad header status = %d", res.StatusCode)
	}
}

func TestCanvasSizes(t *testing.T) {
	srv := newServer(t, nil)
	res := do(t, http.MethodGet, srv.URL+"/api/canvas-sizes", nil, "")
	var sizes []elements.Size
	if err := json.NewDecoder(res.Body).Decode(&sizes); err != nil {
		t.Fatal(err)
	}
	if len(sizes) != len(elements.Presets) || sizes[0] != elements.SizeA4 {
		t.Errorf("sizes = %+v", sizes)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newServer(t, &BearerAuth{Secret: testSecret, Issuer: "certmerge"})

	good, err := sec.GenerateAPIToken(testSecret, "certmerge", "editor", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	otherIssuer, err := sec.GenerateAPIToken(testSecret, "someone-else", "editor", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"wrong issuer", otherIssuer, http.StatusUnauthorized},
		{"valid", good, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, http.MethodGet, srv.URL+"/api/templates", nil, tt.token)
			if res.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestBearerAuthSubject(t *testing.T) {
	auth := &BearerAuth{Secret: testSecret, Issuer: "certmerge"}
	token, err := sec.GenerateAPIToken(testSecret, "certmerge", "editor", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	var got string
	h := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = actor(r)
		if sub, ok := Subject(r.Context()); !ok || sub != "editor" {
			t.Errorf("Subject = %q, %v; want editor, true", sub, ok)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "editor" {
		t.Errorf("actor = %q, want editor", got)
	}

	anon := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
	anon.RemoteAddr = "10.0.0.7:5555"
	if _, ok := Subject(anon.Context()); ok {
		t.Error("Subject on an unauthenticated request reported ok")
	}
	if a := actor(anon); a != "anonymous@10.0.0.7" {
		t.Errorf("actor = %q, want anonymous@10.0.0.7", a)
	}
}

func TestUploadRateLimit(t *testing.T) {
	limiter := throttle.NewLimiter[string](context.Background(), time.Minute, time.Hour)
	limiter.SetGroup(UploadGroup, throttle.Conf{Burst: 2, Increment: 1, Period: time.Hour})
	h := &Handler{Templates: templates.NewRepository(&memory.Client{}), Limiter: limiter}
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	body := []byte("Name\nAda\n")
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		res := do(t, http.MethodPost, srv.URL+"/api/imports?filename=a.csv", body, "")
		if res.StatusCode != want {
			t.Errorf("request %d status = %d, want %d", i+1, res.StatusCode, want)
		}
	}
	if res := do(t, http.MethodGet, srv.URL+"/api/templates", nil, ""); res.StatusCode != http.StatusOK {
		t.Errorf("reads are not limited, got %d", res.StatusCode)
	}
}
