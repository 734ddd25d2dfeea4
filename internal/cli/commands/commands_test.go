package commands

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DocPlatform/internal/apitest"
	"DocPlatform/internal/cli/model"
	"DocPlatform/internal/config"
)

func newBackend(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New(nil)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BaseURL:        baseURL,
		LoginURL:       config.DefaultLoginURL,
		RequestTimeout: 5 * time.Second,
		RefreshTimeout: 5 * time.Second,
		TokenStore:     config.StoreFS,
		TokenFile:      filepath.Join(dir, "tokens.json"),
		TokenKeyFile:   filepath.Join(dir, "token.key"),
		TokenDSN:       filepath.Join(dir, "client.sqlite"),
		LogLevel:       "off",
	}
}

func writeZip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("report.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("quarterly report"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func run(cfg *config.Config, args ...string) int {
	return Dispatch(context.Background(), cfg, args)
}

func TestCommands_SessionLifecycle(t *testing.T) {
	srv := newBackend(t)
	srv.SetCounts(model.DashboardMetrics{
		ReportsGenerated:   4,
		ChatbotSessions:    7,
		CompaniesOnboarded: 2,
		AssetAnalysisCount: 9,
	})
	cfg := testConfig(t, srv.BaseURL())
	out := captureOut(t)

	require.Equal(t, 0, run(cfg, "signup", "Ann", "ann@example.com", "s3cret"))
	assert.Contains(t, out.String(), "Account ann@example.com created")

	out.Reset()
	require.Equal(t, 0, run(cfg, "login", "ann@example.com", "s3cret"))
	assert.Contains(t, out.String(), "Logged in successfully")

	out.Reset()
	require.Equal(t, 0, run(cfg, "status"))
	assert.Contains(t, out.String(), "logged in as ann@example.com")
	assert.Contains(t, out.String(), srv.BaseURL())

	out.Reset()
	require.Equal(t, 0, run(cfg, "whoami"))
	assert.Contains(t, out.String(), "Name:  Ann")
	assert.Contains(t, out.String(), "Email: ann@example.com")

	out.Reset()
	require.Equal(t, 0, run(cfg, "metrics"))
	assert.Contains(t, out.String(), "Reports generated:    4")
	assert.Contains(t, out.String(), "Chatbot sessions:     7")
	assert.Contains(t, out.String(), "Companies onboarded:  2")
	assert.Contains(t, out.String(), "Asset analyses:       9")

	out.Reset()
	require.Equal(t, 0, run(cfg, "upload", "acme", writeZip(t)))
	assert.Contains(t, out.String(), "Upload successful (id 1)")
	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "acme", uploads[0].CompanyID)
	assert.Equal(t, "docs.zip", uploads[0].Filename)

	out.Reset()
	require.Equal(t, 0, run(cfg, "logout"))
	require.Equal(t, 0, run(cfg, "status"))
	assert.Contains(t, out.String(), "not logged in")
}

func TestCommands_RefreshesBetweenInvocations(t *testing.T) {
	srv := newBackend(t)
	require.NoError(t, srv.AddUser("Ann", "ann@example.com", "s3cret"))
	cfg := testConfig(t, srv.BaseURL())
	captureOut(t)

	require.Equal(t, 0, run(cfg, "login", "ann@example.com", "s3cret"))
	srv.ExpireAccess()

	// пара из файла обновляется и переживает перезапуск процесса
	require.Equal(t, 0, run(cfg, "metrics"))
	assert.Equal(t, 1, srv.RefreshCalls())
	require.Equal(t, 0, run(cfg, "whoami"))
	assert.Equal(t, 1, srv.RefreshCalls())
}

func TestCommands_ExpiredSessionExitCode(t *testing.T) {
	srv := newBackend(t)
	require.NoError(t, srv.AddUser("Ann", "ann@example.com", "s3cret"))
	cfg := testConfig(t, srv.BaseURL())
	out := captureOut(t)

	require.Equal(t, 0, run(cfg, "login", "ann@example.com", "s3cret"))
	srv.ExpireAccess()
	srv.RevokeRefresh()

	out.Reset()
	assert.Equal(t, ExitAuthExpired, run(cfg, "metrics"))
	assert.Contains(t, out.String(), `please run "dpcli login"`)
	assert.Contains(t, out.String(), "metrics error: session expired")

	out.Reset()
	require.Equal(t, 0, run(cfg, "status"))
	assert.Contains(t, out.String(), "not logged in")
}

func TestCommands_Errors(t *testing.T) {
	srv := newBackend(t)
	require.NoError(t, srv.AddUser("Ann", "ann@example.com", "s3cret"))
	cfg := testConfig(t, srv.BaseURL())
	out := captureOut(t)

	assert.Equal(t, 1, run(cfg, "login", "ann@example.com", "wrong"))
	assert.Contains(t, out.String(), "login error:")

	out.Reset()
	assert.Equal(t, 2, run(cfg, "login", "ann@example.com"))
	assert.Contains(t, out.String(), "Usage: login <email> <password>")

	out.Reset()
	assert.Equal(t, 1, run(cfg, "upload", "acme", filepath.Join(t.TempDir(), "missing.zip")))

	require.Equal(t, 0, run(cfg, "login", "ann@example.com", "s3cret"))
	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	out.Reset()
	assert.Equal(t, 1, run(cfg, "upload", "acme", txt))
	assert.Contains(t, out.String(), "only .zip archives are supported")
	assert.Empty(t, srv.Uploads())
}

func TestCommands_OnboardThenUpload(t *testing.T) {
	srv := newBackend(t)
	require.NoError(t, srv.AddUser("Ann", "ann@example.com", "s3cret"))
	cfg := testConfig(t, srv.BaseURL())
	out := captureOut(t)

	require.Equal(t, 0, run(cfg, "login", "ann@example.com", "s3cret"))

	out.Reset()
	require.Equal(t, 0, run(cfg, "onboard",
		"-name", "Acme", "-sector", "Energy", "-country", "DE",
		"-incorporated", "2019-04-01", "-contact", "Ann", "-email", "ann@acme.example",
		"-frequency", "Quarterly"))
	assert.Contains(t, out.String(), "Company Acme onboarded (id 1)")
	assert.Contains(t, out.String(), "dpcli upload 1 <zip-path>")
	companies := srv.Companies()
	require.Len(t, companies, 1)
	assert.Equal(t, "Active", companies[0].Status)

	out.Reset()
	assert.Equal(t, 1, run(cfg, "onboard", "-name", "Acme"))
	assert.Contains(t, out.String(), "already exists")

	out.Reset()
	assert.Equal(t, 2, run(cfg, "onboard", "-sector", "Energy"))
	assert.Contains(t, out.String(), "Usage: onboard")

	require.Equal(t, 0, run(cfg, "upload", "1", writeZip(t)))
	require.Len(t, srv.Uploads(), 1)
	assert.Equal(t, "1", srv.Uploads()[0].CompanyID)
}
