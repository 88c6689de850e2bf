package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobtracker/e2e/internal/jobs"
)

func startServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = zaptest.NewLogger(t)
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	_, err = srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// browserClient keeps cookies and does not follow redirects.
func browserClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, method, url, body string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func signIn(t *testing.T, srv *Server, c *http.Client) {
	t.Helper()
	resp, _ := do(t, c, http.MethodPost, srv.URL()+"/auth/session",
		`{"email":"`+DefaultUserEmail+`","password":"`+DefaultUserPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStartStop(t *testing.T) {
	// Create server with random port
	srv, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Verify we got a real address (not :0)
	if addr == "" || addr == ":0" {
		t.Errorf("Start() returned invalid address: %q", addr)
	}
	t.Logf("Server started on %s", addr)

	if got := srv.Addr(); got != addr {
		t.Errorf("Addr() = %q, want %q", got, addr)
	}

	url := srv.URL() + "/auth/login"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("HTTP GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /auth/login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Job Application Tracker") {
		t.Error("Response body doesn't contain expected HTML")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	// Verify server is stopped (should fail to connect)
	_, err = http.Get(url)
	if err == nil {
		t.Error("Expected connection error after shutdown, but request succeeded")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Addr != ":0" {
		t.Errorf("DefaultConfig().Addr = %q, want %q", cfg.Addr, ":0")
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("DefaultConfig().ReadTimeout = %v, want %v", cfg.ReadTimeout, 30*time.Second)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Errorf("DefaultConfig().WriteTimeout = %v, want %v", cfg.WriteTimeout, 30*time.Second)
	}
	if len(cfg.Users) != 1 || cfg.Users[0].Email != DefaultUserEmail {
		t.Errorf("DefaultConfig().Users = %+v, want the default account", cfg.Users)
	}
}

func TestServerDoubleStart(t *testing.T) {
	srv, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	defer srv.Shutdown(context.Background())

	addr1, err := srv.Start()
	if err != nil {
		t.Fatalf("First Start() failed: %v", err)
	}

	// Second start should return same address (no error)
	addr2, err := srv.Start()
	if err != nil {
		t.Fatalf("Second Start() failed: %v", err)
	}

	if addr1 != addr2 {
		t.Errorf("Second Start() returned different address: %q vs %q", addr1, addr2)
	}
}

func TestNewServer_RequiresAnonKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnonKey = ""
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestHome_RedirectsWithoutSession(t *testing.T) {
	srv := startServer(t)
	c := browserClient(t)

	resp, _ := do(t, c, http.MethodGet, srv.URL()+"/", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	signIn(t, srv, c)
	resp, body := do(t, c, http.MethodGet, srv.URL()+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Add Job Application")
	assert.NotContains(t, string(body), "__coverage__ =")
}

func TestHome_InstrumentedExposesCoverage(t *testing.T) {
	srv := startServer(t, func(c *Config) { c.Instrument = true })
	c := browserClient(t)
	signIn(t, srv, c)

	_, body := do(t, c, http.MethodGet, srv.URL()+"/", "", nil)
	assert.Contains(t, string(body), "window.__coverage__ =")
}

func TestSession_RejectsBadPassword(t *testing.T) {
	srv := startServer(t)
	resp, body := do(t, browserClient(t), http.MethodPost, srv.URL()+"/auth/session",
		`{"email":"`+DefaultUserEmail+`","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid login credentials")
}

func TestRegisterAndLogout(t *testing.T) {
	srv := startServer(t)
	c := browserClient(t)

	resp, _ := do(t, c, http.MethodPost, srv.URL()+"/auth/register", `{"email":"new@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, c, http.MethodGet, srv.URL()+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, c, http.MethodPost, srv.URL()+"/auth/register", `{"email":"NEW@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, c, http.MethodPost, srv.URL()+"/auth/logout", "", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = do(t, c, http.MethodGet, srv.URL()+"/api/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJobsAPI_CRUD(t *testing.T) {
	srv := startServer(t)
	c := browserClient(t)
	signIn(t, srv, c)
	base := srv.URL() + "/api/jobs"

	resp, _ := do(t, c, http.MethodPost, base, `{"url":"https://example.com/job/1","job_title":"QA"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "company is required")

	resp, body := do(t, c, http.MethodPost, base,
		`{"url":"https://example.com/job/1","job_title":"QA","company_name":"Acme","status":"applied"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct{ Job jobs.Job }
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, jobs.StatusApplied, created.Job.Status)
	assert.Equal(t, DefaultUserID, created.Job.UserID)

	resp, _ = do(t, c, http.MethodPost, base, `{"url":"https://example.com/job/1","company_name":"Acme"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, c, http.MethodPut, base, `{"id":"`+created.Job.ID+`","company_name":"Globex"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct{ Job jobs.Job }
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Globex", updated.Job.CompanyName)
	assert.Equal(t, "QA", updated.Job.JobTitle)

	resp, body = do(t, c, http.MethodGet, base+"?q=glob&status=applied", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct{ Jobs []jobs.Job }
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Jobs, 1)

	resp, _ = do(t, c, http.MethodGet, base+"?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, c, http.MethodDelete, base+"?id="+created.Job.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, c, http.MethodDelete, base+"?id="+created.Job.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExport_AttachmentName(t *testing.T) {
	srv := startServer(t)
	c := browserClient(t)
	signIn(t, srv, c)

	do(t, c, http.MethodPost, srv.URL()+"/api/jobs", `{"url":"https://example.com/x","company_name":"<Acme>"}`, nil)
	resp, body := do(t, c, http.MethodGet, srv.URL()+"/api/jobs/export", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	disp := resp.Header.Get("Content-Disposition")
	assert.Contains(t, disp, "attachment;")
	assert.Regexp(t, `filename="job-applications-\d{4}-\d{2}-\d{2}\.html"`, disp)
	assert.Contains(t, string(body), "&lt;Acme&gt;")
}

func TestToken_PasswordGrant(t *testing.T) {
	srv := startServer(t)
	c := browserClient(t)
	key := map[string]string{"apikey": DefaultAnonKey}
	url := srv.URL() + "/auth/v1/token?grant_type=password"

	resp, _ := do(t, c, http.MethodPost, url, `{"email":"a","password":"b"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "apikey is required")

	resp, body := do(t, c, http.MethodPost, url, `{"email":"`+DefaultUserEmail+`","password":"wrong"}`, key)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid_grant")

	resp, _ = do(t, c, http.MethodPost, srv.URL()+"/auth/v1/token?grant_type=refresh_token", `{}`, key)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, c, http.MethodPost, url,
		`{"email":"`+DefaultUserEmail+`","password":"`+DefaultUserPassword+`"}`, key)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, DefaultUserID, tok.User.ID)
}

func TestRESTDelete_ScopedToCaller(t *testing.T) {
	other := User{ID: "other-user", Email: "other@example.com", Password: "pw"}
	srv := startServer(t, func(c *Config) { c.Users = append(c.Users, other) })
	ctx := context.Background()

	_, err := srv.Store().Create(ctx, DefaultUserID, jobs.Insert{URL: "https://example.com/mine", CompanyName: "Mine"})
	require.NoError(t, err)
	_, err = srv.Store().Create(ctx, other.ID, jobs.Insert{URL: "https://example.com/theirs", CompanyName: "Theirs"})
	require.NoError(t, err)

	_, token, err := srv.accounts.signIn(DefaultUserEmail, DefaultUserPassword)
	require.NoError(t, err)
	c := browserClient(t)
	hdr := map[string]string{
		"apikey":        DefaultAnonKey,
		"Authorization": "Bearer " + token,
		"Prefer":        "return=representation",
	}

	resp, _ := do(t, c, http.MethodDelete, srv.URL()+"/rest/v1/jobs", "", hdr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "filter is required")

	resp, _ = do(t, c, http.MethodDelete, srv.URL()+"/rest/v1/jobs?user_id=eq."+other.ID, "", hdr)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, c, http.MethodDelete, srv.URL()+"/rest/v1/jobs?user_id=eq."+DefaultUserID, "",
		map[string]string{"apikey": DefaultAnonKey, "Authorization": "Bearer bogus"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, c, http.MethodDelete, srv.URL()+"/rest/v1/jobs?user_id=eq."+DefaultUserID, "", hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted []jobs.Job
	require.NoError(t, json.Unmarshal(body, &deleted))
	require.Len(t, deleted, 1)
	assert.Equal(t, "Mine", deleted[0].CompanyName)

	theirs, err := srv.Store().List(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1, "other user's rows survive")

	delete(hdr, "Prefer")
	resp, _ = do(t, c, http.MethodDelete, srv.URL()+"/rest/v1/jobs?user_id=eq."+DefaultUserID, "", hdr)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
