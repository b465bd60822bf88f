package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/resumerag/internal/config"
	"github.com/hyperjump/resumerag/internal/extract"
	"github.com/hyperjump/resumerag/internal/indexer"
	"github.com/hyperjump/resumerag/internal/keyword"
	"github.com/hyperjump/resumerag/internal/matching"
	"github.com/hyperjump/resumerag/internal/models"
	"github.com/hyperjump/resumerag/internal/redact"
	"github.com/hyperjump/resumerag/internal/search"
	"github.com/hyperjump/resumerag/internal/skills"
	"github.com/hyperjump/resumerag/internal/storage"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *storage.SQLiteStorage
	cfg     *config.Config
}

func newTestEnv(t *testing.T, watch WatchService, configPath string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.RateLimitPerMin = 0
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "test.db")
	cfg.Storage.KeywordIndexPath = filepath.Join(dir, "bleve")
	cfg.Storage.UploadDir = filepath.Join(dir, "uploads")

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	kw, err := keyword.NewMemIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kw.Close() })

	deps := Deps{
		Storage:  store,
		Indexer:  indexer.NewIndexer(store, kw, extract.NewExtractor(), cfg.Storage.UploadDir),
		Keywords: kw,
		Selector: search.NewSelector(store, kw, cfg.Search.Prefilter, cfg.Search.KeywordCandidates),
		Search:   search.NewEngine(search.WithWorkers(2)),
		Matching: matching.NewEngine(matching.NewMatcher(skills.NewDefaultExtractor(), matching.Options{}), matching.WithWorkers(2)),
		Redactor: redact.New(),
	}
	srv := NewServer(deps, cfg, zap.NewNop(), watch, configPath)
	return &testEnv{srv: srv, handler: srv.Handler(), store: store, cfg: cfg}
}

func (e *testEnv) serve(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return e.serve(r)
}

func (e *testEnv) upload(t *testing.T, target string, fields map[string]string, fileField, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(r)
}

func (e *testEnv) createUser(t *testing.T, name, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/users", models.UserInput{Name: name, Email: email})
	wantStatus(t, w, http.StatusCreated)
	return decode[struct {
		User models.User `json:"user"`
	}](t, w).User.ID
}

func (e *testEnv) uploadText(t *testing.T, userID, title, content string) string {
	t.Helper()
	w := e.upload(t, "/api/resumes", map[string]string{"title": title, "userId": userID}, "file", title+".txt", []byte(content))
	wantStatus(t, w, http.StatusCreated)
	return decode[struct {
		Resume models.Document `json:"resume"`
	}](t, w).Resume.ID
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	wantStatus(t, w, status)
	if got := decode[map[string]string](t, w)["error"]; got != message {
		t.Errorf("error = %q, want %q", got, message)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandleCreateUser(t *testing.T) {
	env := newTestEnv(t, nil, "")
	env.createUser(t, "Alice", "alice@example.com")

	tests := []struct {
		name   string
		in     models.UserInput
		status int
	}{
		{"duplicate email", models.UserInput{Name: "Alice 2", Email: "alice@example.com"}, http.StatusConflict},
		{"missing name", models.UserInput{Email: "x@example.com"}, http.StatusBadRequest},
		{"invalid email", models.UserInput{Name: "Bob", Email: "not-an-email"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantStatus(t, env.do(t, http.MethodPost, "/users", tt.in), tt.status)
		})
	}

	w := env.do(t, http.MethodPost, "/users", models.UserInput{Email: "x@example.com"})
	wantError(t, w, http.StatusBadRequest, "Name and email are required")
}

func TestHandleUploadResume(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")

	w := env.upload(t, "/api/resumes", map[string]string{"title": "Backend", "description": "Go dev", "userId": uid},
		"file", "cv.txt", []byte("Go and Docker engineer"))
	wantStatus(t, w, http.StatusCreated)
	out := decode[struct {
		Message string          `json:"message"`
		Resume  models.Document `json:"resume"`
	}](t, w)
	if out.Message != "Resume uploaded successfully" {
		t.Errorf("message = %q", out.Message)
	}
	if out.Resume.Content != "Go and Docker engineer" {
		t.Errorf("content = %q", out.Resume.Content)
	}
	if !strings.HasPrefix(out.Resume.FileURL, indexer.UploadURLPrefix) {
		t.Errorf("fileUrl = %q", out.Resume.FileURL)
	}

	// The stored file is served back.
	rec := env.serve(httptest.NewRequest(http.MethodGet, out.Resume.FileURL, nil))
	wantStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Go and Docker engineer" {
		t.Errorf("served file = %q", rec.Body.String())
	}
}

func TestHandleUploadResume_validation(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")

	tests := []struct {
		name   string
		fields map[string]string
		file   bool
		status int
	}{
		{"missing title", map[string]string{"userId": uid}, true, http.StatusBadRequest},
		{"missing user", map[string]string{"title": "CV"}, true, http.StatusBadRequest},
		{"missing file", map[string]string{"title": "CV", "userId": uid}, false, http.StatusBadRequest},
		{"unknown user", map[string]string{"title": "CV", "userId": "nobody"}, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := ""
			if tt.file {
				field = "file"
			}
			wantStatus(t, env.upload(t, "/api/resumes", tt.fields, field, "cv.txt", []byte("Python")), tt.status)
		})
	}

	// A JSON body is not multipart.
	wantStatus(t, env.do(t, http.MethodPost, "/api/resumes", map[string]string{"title": "CV"}), http.StatusBadRequest)
}

func TestHandleUploadResume_tooLarge(t *testing.T) {
	env := newTestEnv(t, nil, "")
	env.cfg.Server.MaxUploadMB = 1
	uid := env.createUser(t, "Alice", "alice@example.com")
	big := bytes.Repeat([]byte("a"), 2<<20)
	w := env.upload(t, "/api/resumes", map[string]string{"title": "CV", "userId": uid}, "file", "cv.txt", big)
	wantStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestHandleBulkUpload(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"notes.txt", "__MACOSX/._a.pdf"} {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte("x"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	w := env.upload(t, "/api/resumes/bulk", map[string]string{"userId": uid}, "zip", "batch.zip", buf.Bytes())
	wantStatus(t, w, http.StatusCreated)
	out := decode[struct {
		Message string             `json:"message"`
		Resumes []*models.Document `json:"resumes"`
	}](t, w)
	if out.Message != "Bulk resumes uploaded successfully" {
		t.Errorf("message = %q", out.Message)
	}
	if len(out.Resumes) != 0 {
		t.Errorf("ingested %d resumes, want 0", len(out.Resumes))
	}

	w = env.upload(t, "/api/resumes/bulk", map[string]string{}, "zip", "batch.zip", buf.Bytes())
	wantError(t, w, http.StatusBadRequest, "ZIP file and userId are required")

	w = env.upload(t, "/api/resumes/bulk", map[string]string{"userId": uid}, "zip", "batch.zip", []byte("not a zip"))
	wantStatus(t, w, http.StatusBadRequest)
}

type resumeList struct {
	Resumes    []map[string]any  `json:"resumes"`
	Pagination models.Pagination `json:"pagination"`
}

func TestHandleListAndGetResumes(t *testing.T) {
	env := newTestEnv(t, nil, "")
	alice := env.createUser(t, "Alice", "alice@example.com")
	bob := env.createUser(t, "Bob", "bob@example.com")
	env.uploadText(t, alice, "first", "Python developer")
	env.uploadText(t, alice, "second", "Java developer")
	id := env.uploadText(t, bob, "third", "Reach me at bob@example.com or 555-123-4567")

	w := env.do(t, http.MethodGet, "/api/resumes?limit=2", nil)
	wantStatus(t, w, http.StatusOK)
	list := decode[resumeList](t, w)
	if len(list.Resumes) != 2 {
		t.Fatalf("got %d resumes, want 2", len(list.Resumes))
	}
	if list.Resumes[0]["title"] != "third" {
		t.Errorf("first listed = %v, want newest (third)", list.Resumes[0]["title"])
	}
	if _, ok := list.Resumes[0]["content"]; ok {
		t.Error("list entries must not carry content")
	}
	if want := (models.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}); list.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", list.Pagination, want)
	}

	w = env.do(t, http.MethodGet, "/api/resumes?userId="+alice+"&q=java", nil)
	wantStatus(t, w, http.StatusOK)
	list = decode[resumeList](t, w)
	if len(list.Resumes) != 1 || list.Resumes[0]["title"] != "second" {
		t.Errorf("filtered list = %v", list.Resumes)
	}

	wantStatus(t, env.do(t, http.MethodGet, "/api/resumes?limit=-1", nil), http.StatusBadRequest)

	type resumeBody struct {
		Resume models.Document `json:"resume"`
	}
	w = env.do(t, http.MethodGet, "/api/resumes/"+id+"?redactPII=true", nil)
	wantStatus(t, w, http.StatusOK)
	got := decode[resumeBody](t, w)
	if want := "Reach me at " + redact.EmailPlaceholder + " or " + redact.PhonePlaceholder; got.Resume.Content != want {
		t.Errorf("redacted content = %q, want %q", got.Resume.Content, want)
	}
	if got.Resume.Owner.Name != "Bob" {
		t.Errorf("owner = %q, want Bob", got.Resume.Owner.Name)
	}

	w = env.do(t, http.MethodGet, "/api/resumes/"+id, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decode[resumeBody](t, w); !strings.Contains(got.Resume.Content, "bob@example.com") {
		t.Errorf("unredacted content = %q", got.Resume.Content)
	}

	wantError(t, env.do(t, http.MethodGet, "/api/resumes/missing", nil), http.StatusNotFound, "Resume not found")
}

func TestHandleDeleteResume(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")
	id := env.uploadText(t, uid, "cv", "Rust")

	wantStatus(t, env.do(t, http.MethodDelete, "/api/resumes/"+id, nil), http.StatusOK)
	wantStatus(t, env.do(t, http.MethodDelete, "/api/resumes/"+id, nil), http.StatusNotFound)
}

func TestHandleAsk(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")
	env.uploadText(t, uid, "ml", "Machine learning with Python and TensorFlow")
	env.uploadText(t, uid, "web", "React and Node.js frontend work")

	k := 1
	w := env.do(t, http.MethodPost, "/api/ask", models.SearchQuery{Query: "python", K: &k})
	wantStatus(t, w, http.StatusOK)
	resp := decode[models.SearchResponse](t, w)
	if len(resp.Results) != 1 || resp.TotalMatches != 1 {
		t.Fatalf("got %d results, totalMatches %d", len(resp.Results), resp.TotalMatches)
	}
	if r := resp.Results[0]; r.Title != "ml" || r.Candidate.Name != "Alice" {
		t.Errorf("top result = %q by %q", r.Title, r.Candidate.Name)
	}

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty query", `{"query":""}`, http.StatusBadRequest},
		{"whitespace query is scored", `{"query":"   "}`, http.StatusOK},
		{"malformed json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body))
			wantStatus(t, env.serve(r), tt.status)
		})
	}
}

func TestHandleJobsAndMatch(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Recruiter", "hr@example.com")
	env.uploadText(t, uid, "weak", "Ruby on Rails")
	env.uploadText(t, uid, "strong", "Python and AWS with Docker")

	w := env.do(t, http.MethodPost, "/api/jobs", models.JobInput{
		Title: "Data Engineer", Company: "Acme", Description: "Docker pipelines",
		Requirements: "Python, AWS", PostedBy: uid,
	})
	wantStatus(t, w, http.StatusCreated)
	created := decode[struct {
		Message string            `json:"message"`
		Job     models.JobPosting `json:"job"`
	}](t, w)
	if created.Message != "Job created successfully" {
		t.Errorf("message = %q", created.Message)
	}
	if created.Job.EmploymentType != models.EmploymentFullTime || created.Job.Poster.Name != "Recruiter" {
		t.Errorf("job = type %q poster %q", created.Job.EmploymentType, created.Job.Poster.Name)
	}

	invalid := []models.JobInput{
		{Title: "No company", PostedBy: uid},
		{Title: "x", Company: "y", Description: "z", Requirements: "Go", PostedBy: "ghost"},
	}
	for _, in := range invalid {
		wantStatus(t, env.do(t, http.MethodPost, "/api/jobs", in), http.StatusBadRequest)
	}

	wantStatus(t, env.do(t, http.MethodGet, "/api/jobs/"+created.Job.ID, nil), http.StatusOK)
	wantStatus(t, env.do(t, http.MethodGet, "/api/jobs/nope", nil), http.StatusNotFound)

	w = env.do(t, http.MethodGet, "/api/jobs?company=Acme", nil)
	wantStatus(t, w, http.StatusOK)
	jobs := decode[struct {
		Jobs       []models.JobPosting `json:"jobs"`
		Pagination models.Pagination   `json:"pagination"`
	}](t, w)
	if len(jobs.Jobs) != 1 || jobs.Pagination.Total != 1 {
		t.Errorf("jobs = %d, total %d", len(jobs.Jobs), jobs.Pagination.Total)
	}

	top := 1
	w = env.do(t, http.MethodPost, "/api/jobs/"+created.Job.ID+"/match", models.MatchRequest{TopN: &top})
	wantStatus(t, w, http.StatusOK)
	resp := decode[models.MatchResponse](t, w)
	if len(resp.Matches) != 1 || resp.TotalCandidates != 2 {
		t.Fatalf("matches = %d, totalCandidates %d", len(resp.Matches), resp.TotalCandidates)
	}
	if resp.Matches[0].Candidate.Name != "Recruiter" {
		t.Errorf("candidate = %q", resp.Matches[0].Candidate.Name)
	}
	strengths := append([]string(nil), resp.Matches[0].Strengths...)
	sort.Strings(strengths)
	if !reflect.DeepEqual(strengths, []string{"aws", "python"}) {
		t.Errorf("strengths = %v, want aws and python", resp.Matches[0].Strengths)
	}

	// Empty body uses the default top_n.
	rec := env.serve(httptest.NewRequest(http.MethodPost, "/api/jobs/"+created.Job.ID+"/match", nil))
	wantStatus(t, rec, http.StatusOK)
	if n := len(decode[models.MatchResponse](t, rec).Matches); n != 2 {
		t.Errorf("default top_n matches = %d, want 2", n)
	}

	neg := -1
	wantStatus(t, env.do(t, http.MethodPost, "/api/jobs/"+created.Job.ID+"/match", models.MatchRequest{TopN: &neg}), http.StatusBadRequest)
	wantStatus(t, env.do(t, http.MethodPost, "/api/jobs/missing/match", nil), http.StatusNotFound)
}

func TestHandleHealthStatusMetrics(t *testing.T) {
	env := newTestEnv(t, nil, "")
	uid := env.createUser(t, "Alice", "alice@example.com")
	env.uploadText(t, uid, "cv", "Kotlin")

	wantStatus(t, env.do(t, http.MethodGet, "/health", nil), http.StatusOK)

	w := env.do(t, http.MethodGet, "/api/status", nil)
	wantStatus(t, w, http.StatusOK)
	status := decode[map[string]any](t, w)
	for key, want := range map[string]float64{"resumes": 1, "users": 1, "jobs": 0, "keyword_index_size": 1} {
		if got, _ := status[key].(float64); got != want {
			t.Errorf("status[%q] = %v, want %v", key, status[key], want)
		}
	}
	cfg, ok := status["config"].(map[string]any)
	if !ok {
		t.Fatalf("config = %T", status["config"])
	}
	if cfg["prefilter"] != config.PrefilterNone {
		t.Errorf("prefilter = %v, want %q", cfg["prefilter"], config.PrefilterNone)
	}

	w = env.do(t, http.MethodGet, "/metrics", nil)
	wantStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "resumerag_http_requests_total") {
		t.Error("metrics output lacks resumerag_http_requests_total")
	}
}

func TestHandleWatchDirectoriesList(t *testing.T) {
	mock := &mockWatchService{dirs: []string{"/tmp/docs"}}
	env := newTestEnv(t, mock, "")

	w := env.do(t, http.MethodGet, "/api/watch/directories", nil)
	wantStatus(t, w, http.StatusOK)
	out := decode[struct {
		Directories []string `json:"directories"`
	}](t, w)
	if !reflect.DeepEqual(out.Directories, []string{"/tmp/docs"}) {
		t.Errorf("directories = %v", out.Directories)
	}
}

func TestHandleWatchDirectories_notEnabled(t *testing.T) {
	env := newTestEnv(t, nil, "")
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			wantStatus(t, env.do(t, method, "/api/watch/directories", nil), http.StatusNotImplemented)
		})
	}
}

func TestHandleWatchDirectoriesAddAndRemove(t *testing.T) {
	mock := &mockWatchService{}
	configPath := filepath.Join(t.TempDir(), "config.yml")
	env := newTestEnv(t, mock, configPath)
	dir := t.TempDir()

	wantStatus(t, env.do(t, http.MethodPost, "/api/watch/directories", watchAddRequest{Path: dir}), http.StatusCreated)
	if !reflect.DeepEqual(mock.dirs, []string{dir}) {
		t.Errorf("watched = %v, want [%s]", mock.dirs, dir)
	}

	saved, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if !reflect.DeepEqual(saved.Watch.Directories, []string{dir}) {
		t.Errorf("persisted directories = %v", saved.Watch.Directories)
	}

	file := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing path", "", http.StatusBadRequest},
		{"nonexistent directory", filepath.Join(dir, "missing"), http.StatusNotFound},
		{"not a directory", file, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantStatus(t, env.do(t, http.MethodPost, "/api/watch/directories", watchAddRequest{Path: tt.path}), tt.status)
		})
	}

	wantStatus(t, env.do(t, http.MethodDelete, "/api/watch/directories?path="+dir, nil), http.StatusOK)
	if len(mock.dirs) != 0 {
		t.Errorf("watched after remove = %v", mock.dirs)
	}
	wantStatus(t, env.do(t, http.MethodDelete, "/api/watch/directories", nil), http.StatusBadRequest)
}

func TestRespondErr(t *testing.T) {
	env := newTestEnv(t, nil, "")
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidArgument, http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrConflict, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		env.srv.respondErr(w, tt.err)
		if w.Code != tt.want {
			t.Errorf("respondErr(%v) status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}
}
