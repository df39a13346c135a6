package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Johannes-Berggren/CommitQuery/internal/console"
	"github.com/Johannes-Berggren/CommitQuery/internal/git"
	"github.com/Johannes-Berggren/CommitQuery/internal/models"
	"github.com/Johannes-Berggren/CommitQuery/internal/session"
)

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	flagServer = ""
	flagConfigDir = ""
	flagTimeout = 0
	flagDebug = false
	flagNoGit = false
	flagUsername = ""
	flagPassword = ""
	flagCheck = false
	flagProject = ""
	flagBranch = ""
	flagSince = ""
	flagUntil = ""
	flagAuthors = ""
	flagPage = 1
	flagPageSize = 0
	flagCopy = false
}

type result struct {
	out    string
	errOut string
	err    error
}

// run executes the root command against server with a fresh config dir.
func run(t *testing.T, server *httptest.Server, dir string, stdin string, args ...string) result {
	t.Helper()
	resetFlags()
	for _, env := range []string{"CQ_SERVER", "CQ_TIMEOUT", "CQ_PAGE_SIZE", "XDG_CONFIG_HOME"} {
		t.Setenv(env, "")
	}

	var out, errOut bytes.Buffer
	prevOut, prevErr, prevColors := console.Out, console.Err, console.Colors
	console.Out, console.Err, console.Colors = &out, &errOut, false
	t.Cleanup(func() {
		console.Out, console.Err, console.Colors = prevOut, prevErr, prevColors
	})

	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config", dir, "--server", server.URL, "--no-git"}, args...))
	err := rootCmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func storeToken(t *testing.T, dir, token string) {
	t.Helper()
	if err := session.NewStore(dir).Save(token); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func storedToken(dir string) string {
	token, _ := session.NewStore(dir).Token()
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func authFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"detail":     "认证失败，请重新登录",
		"redirect":   "/login",
		"auth_error": true,
	})
}

func TestLoginWithFlags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("username") != "alice" || r.FormValue("password") != "secret" {
			t.Errorf("credentials = %q/%q", r.FormValue("username"), r.FormValue("password"))
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	}))
	defer server.Close()
	dir := t.TempDir()

	res := run(t, server, dir, "", "login", "-u", "alice", "-p", "secret")

	if res.err != nil {
		t.Fatalf("login: %v", res.err)
	}
	if got := storedToken(dir); got != "tok-1" {
		t.Errorf("stored token = %q", got)
	}
	if !strings.Contains(res.out, "登录成功") {
		t.Errorf("output = %q", res.out)
	}
	info, err := os.Stat(filepath.Join(dir, session.TokenFileName))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v", info.Mode().Perm())
	}
}

func TestLoginPrompts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-" + r.FormValue("username") + "-" + r.FormValue("password")})
	}))
	defer server.Close()
	dir := t.TempDir()

	res := run(t, server, dir, "bob\nhunter2\n", "login")

	if res.err != nil {
		t.Fatalf("login: %v", res.err)
	}
	if got := storedToken(dir); got != "tok-bob-hunter2" {
		t.Errorf("stored token = %q", got)
	}
	if !strings.Contains(res.errOut, "用户名") || !strings.Contains(res.errOut, "密码") {
		t.Errorf("prompts = %q", res.errOut)
	}
}

func TestLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authFailure(w)
	}))
	defer server.Close()
	dir := t.TempDir()

	res := run(t, server, dir, "", "login", "-u", "alice", "-p", "wrong")

	if res.err == nil || res.err.Error() != "认证失败，请重新登录" {
		t.Fatalf("err = %v", res.err)
	}
	if exitCode(res.err) != ExitRuntimeError {
		t.Errorf("exit code = %d", exitCode(res.err))
	}
	if storedToken(dir) != "" {
		t.Error("token stored after a failed login")
	}
}

func TestLoginWithoutCredentials(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	res := run(t, server, t.TempDir(), "alice\n", "login")

	if !errors.Is(res.err, errNoCredentials) {
		t.Fatalf("err = %v", res.err)
	}
	if calls.Load() != 0 {
		t.Error("request sent without a password")
	}
}

func TestLogout(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	res := run(t, server, dir, "", "logout")

	if res.err != nil {
		t.Fatalf("logout: %v", res.err)
	}
	if storedToken(dir) != "" {
		t.Error("token still stored")
	}
}

func TestCommitsRequiresLogin(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	res := run(t, server, t.TempDir(), "", "commits", "--project", "42", "--branch", "main")

	if !errors.Is(res.err, session.ErrNotAuthenticated) {
		t.Fatalf("err = %v", res.err)
	}
	if exitCode(res.err) != ExitAuthError {
		t.Errorf("exit code = %d", exitCode(res.err))
	}
}

func TestCommits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/commits" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var q models.Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decoding body: %v", err)
			return
		}
		want := models.Query{
			ProjectID:    "42",
			Branch:       "main",
			StartDate:    "2024-05-01",
			EndDate:      "2024-05-31",
			AuthorEmails: "a@x.com,b@x.com",
			Page:         2,
			PageSize:     5,
		}
		if q != want {
			t.Errorf("query = %+v, want %+v", q, want)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]string{
				{"id": "abc", "short_id": "abc1234", "author_name": "爱丽丝", "author_email": "a@x.com", "created_at": "2024-05-02T08:00:00Z", "title": "修复分页"},
				{"id": "def", "short_id": "def5678", "author_name": "bob", "author_email": "b@x.com", "created_at": "2024-05-03T08:00:00Z", "title": "add export"},
			},
			"total": 7, "page": 2, "page_size": 5, "total_pages": 2,
		})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	res := run(t, server, dir, "", "commits",
		"--project", "42", "--branch", "main",
		"--since", "2024-05-01", "--until", "2024-05-31",
		"--authors", "a@x.com, b@x.com,a@x.com",
		"--page", "2", "--page-size", "5")

	if res.err != nil {
		t.Fatalf("commits: %v", res.err)
	}
	for _, want := range []string{"提交ID", "abc1234", "爱丽丝", "修复分页", "def5678", "显示 6-7 条，共 7 条", "第 2 页，共 2 页"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("output missing %q:\n%s", want, res.out)
		}
	}
}

func TestCommitsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing branch", []string{"--project", "42"}, models.ErrMissingFields},
		{"page size too large", []string{"--project", "42", "--branch", "main", "--page-size", "101"}, models.ErrInvalidPageSize},
		{"page zero", []string{"--project", "42", "--branch", "main", "--page", "0"}, errInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer server.Close()
			dir := t.TempDir()
			storeToken(t, dir, "tok")

			res := run(t, server, dir, "", append([]string{"commits"}, tt.args...)...)

			if !errors.Is(res.err, tt.want) {
				t.Errorf("err = %v, want %v", res.err, tt.want)
			}
			if calls.Load() != 0 {
				t.Error("request sent for invalid input")
			}
		})
	}
}

func TestCommitsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0, "page": 1, "page_size": 10, "total_pages": 1})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	res := run(t, server, dir, "", "commits", "--project", "42", "--branch", "main")

	if res.err != nil {
		t.Fatalf("commits: %v", res.err)
	}
	if !strings.Contains(res.errOut, "没有找到提交记录") {
		t.Errorf("stderr = %q", res.errOut)
	}
}

func TestRejectedSessionClearsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authFailure(w)
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	res := run(t, server, dir, "", "export", "--project", "42", "--branch", "main")

	if exitCode(res.err) != ExitAuthError {
		t.Fatalf("err = %v", res.err)
	}
	if !strings.Contains(res.err.Error(), "认证失败，请重新登录") {
		t.Errorf("err = %v", res.err)
	}
	if storedToken(dir) != "" {
		t.Error("rejected token was kept")
	}
}

func TestExport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/commits/text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var q map[string]any
		json.NewDecoder(r.Body).Decode(&q)
		if _, ok := q["page"]; ok {
			t.Error("export request carries pagination")
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": "1、alice：fix login\n2、bob：add export"})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	var copied string
	prev := clipboardWrite
	clipboardWrite = func(s string) error {
		copied = s
		return nil
	}
	defer func() { clipboardWrite = prev }()

	res := run(t, server, dir, "", "export", "--project", "42", "--branch", "main", "--copy")

	if res.err != nil {
		t.Fatalf("export: %v", res.err)
	}
	if !strings.HasPrefix(res.out, "1、alice：fix login\n2、bob：add export\n") {
		t.Errorf("output = %q", res.out)
	}
	if copied != "1、alice：fix login\n2、bob：add export" {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(res.out, "已复制到剪贴板") {
		t.Errorf("output = %q", res.out)
	}
}

func TestExportEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"content": ""})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	res := run(t, server, dir, "", "export", "--project", "42", "--branch", "main", "--copy")

	if !errors.Is(res.err, errNothingToExport) {
		t.Errorf("err = %v", res.err)
	}
}

func TestAuthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/check-auth" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": "alice"})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "opaque-token")

	res := run(t, server, dir, "", "auth", "--check")

	if res.err != nil {
		t.Fatalf("auth: %v", res.err)
	}
	if !strings.Contains(res.out, "服务器已确认登录: alice") {
		t.Errorf("output = %q", res.out)
	}
}

func TestAuthWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	res := run(t, server, t.TempDir(), "", "auth")

	if !errors.Is(res.err, session.ErrNotAuthenticated) {
		t.Errorf("err = %v", res.err)
	}
}

func TestRenderTable(t *testing.T) {
	commits := []models.Commit{{
		ShortID:     "abc1234",
		AuthorName:  "爱丽丝",
		AuthorEmail: "alice@example.com",
		CreatedAt:   time.Date(2024, 5, 2, 8, 0, 0, 0, time.Local).Format(time.RFC3339),
		Title:       "修复分页\n按钮状态错误的问题并补充测试用例",
	}}

	out := renderTable(commits, 100)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "2024/5/2 08:00:00") {
		t.Errorf("time not rendered: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Errorf("long title not truncated: %q", lines[1])
	}
	if strings.Contains(lines[1], "\n") {
		t.Error("title kept its line break")
	}
}

func TestFlagsFallBackToCheckout(t *testing.T) {
	resetFlags()
	flagBranch = "release"
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	q := exportQueryFromFlags(now, git.Checkout{Project: "group%2Fapp", Branch: "main"})

	want := models.ExportQuery{ProjectID: "group%2Fapp", Branch: "release", StartDate: "2024-02-10", EndDate: "2024-02-29"}
	if q != want {
		t.Errorf("query = %+v, want %+v", q, want)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != ExitSuccess {
		t.Error("nil error")
	}
	if exitCode(errors.New("boom")) != ExitRuntimeError {
		t.Error("plain error")
	}
	if exitCode(session.ErrNotAuthenticated) != ExitAuthError {
		t.Error("missing session")
	}
}

func TestConfigSetAndShow(t *testing.T) {
	var sizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q models.Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decoding body: %v", err)
			return
		}
		sizes = append(sizes, q.PageSize)
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}, "total": 0, "page": 1, "page_size": q.PageSize, "total_pages": 1})
	}))
	defer server.Close()
	dir := t.TempDir()
	storeToken(t, dir, "tok")

	for _, kv := range [][]string{{"page_size", "25"}, {"retries", "0"}} {
		res := run(t, server, dir, "", "config", "set", kv[0], kv[1])
		if res.err != nil {
			t.Fatalf("config set %s: %v", kv[0], res.err)
		}
		if !strings.Contains(res.out, "已保存 "+kv[0]) {
			t.Errorf("output = %q", res.out)
		}
	}

	res := run(t, server, dir, "", "config", "show")
	if res.err != nil {
		t.Fatalf("config show: %v", res.err)
	}
	for _, want := range []string{"page_size: 25", "retries: 0", "server: " + server.URL} {
		if !strings.Contains(res.out, want) {
			t.Errorf("show output missing %q:\n%s", want, res.out)
		}
	}

	if res := run(t, server, dir, "", "commits", "--project", "42", "--branch", "main"); res.err != nil {
		t.Fatalf("commits: %v", res.err)
	}
	if res := run(t, server, dir, "", "commits", "--project", "42", "--branch", "main", "--page-size", "7"); res.err != nil {
		t.Fatalf("commits: %v", res.err)
	}
	if len(sizes) != 2 || sizes[0] != 25 || sizes[1] != 7 {
		t.Errorf("page sizes sent = %v, want [25 7]", sizes)
	}
}

func TestConfigSetRejectsBadValue(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	dir := t.TempDir()

	res := run(t, server, dir, "", "config", "set", "page_size", "500")

	if res.err == nil {
		t.Fatal("expected an error for page_size 500")
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yml")); !os.IsNotExist(err) {
		t.Errorf("config file written for a rejected value: %v", err)
	}
}
