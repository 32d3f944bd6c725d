package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/apps/portal/di"
	"github.com/trezcool/masomo-portal/core"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	// an address nothing listens on anymore
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_MOCKMODE", "true")
	t.Setenv("TEST_API_BASEURL", srv.URL)
	t.Setenv("TEST_API_HEALTHCHECKTIMEOUT", "200ms")

	var (
		out bytes.Buffer
		cli *commandLine
	)
	require.NoError(t, di.New().Invoke(func(p di.Params) {
		cli = newCommandLine(p, &out)
	}))
	t.Cleanup(cli.close)
	return cli, &out
}

func withPassword(t *testing.T, pwd string) {
	prev := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = prev })
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func runCmd(cli *commandLine, args ...string) error {
	return cli.run(append([]string{"portal"}, args...))
}

func Test_commandLine_help(t *testing.T) {
	cli, _ := setup(t)
	withPassword(t, "")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-username", "admin"}, wantErr: errHelp},
		{name: "news: bad flag", args: []string{"news", "-nope"}, wantErr: errHelp},
		{name: "mode: unknown", args: []string{"mode", "lol"}, wantErr: errUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCmd(cli, tt.args...)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_session(t *testing.T) {
	cli, out := setup(t)

	withPassword(t, "nope")
	err := runCmd(cli, "login", "-username", "admin")
	assert.True(t, errors.Is(err, core.ErrInvalidCredentials))
	assert.Contains(t, cli.describe(err), "Nom d'utilisateur ou mot de passe incorrect.")
	assert.Contains(t, cli.describe(err), "Mode hors ligne")

	err = runCmd(cli, "whoami")
	assert.True(t, errors.Is(err, core.ErrUnauthenticated))

	withPassword(t, "admin123")
	require.NoError(t, runCmd(cli, "login", "-username", "admin"))
	assert.Contains(t, out.String(), "Welcome Administrateur (admin)")
	assert.Contains(t, out.String(), "Mode hors ligne : données de démonstration locales.")

	out.Reset()
	require.NoError(t, runCmd(cli, "whoami"))
	assert.Contains(t, out.String(), "Administrateur <admin> admin")

	out.Reset()
	require.NoError(t, runCmd(cli, "logout"))
	assert.Contains(t, out.String(), "signed out")
	assert.False(t, cli.session.IsAuthenticated())
}

func Test_commandLine_entities(t *testing.T) {
	cli, out := setup(t)

	for _, cmd := range []string{"news", "notices", "events", "users"} {
		err := runCmd(cli, cmd)
		assert.True(t, errors.Is(err, core.ErrUnauthenticated), cmd)
	}

	withPassword(t, "user123")
	require.NoError(t, runCmd(cli, "login", "-username", "user"))

	out.Reset()
	require.NoError(t, runCmd(cli, "news"))
	assert.Contains(t, out.String(), "Rentrée académique")
	assert.Contains(t, out.String(), "page 1/1, 3 total", "drafts are hidden")

	out.Reset()
	require.NoError(t, runCmd(cli, "news", "-category", "Sports"))
	assert.Contains(t, out.String(), "Tournoi de football")
	assert.Contains(t, out.String(), "page 1/1, 1 total")

	out.Reset()
	require.NoError(t, runCmd(cli, "notices", "-unread"))
	assert.Contains(t, out.String(), "3 unread")

	out.Reset()
	require.NoError(t, runCmd(cli, "events", "-limit", "1"))
	assert.Contains(t, out.String(), "Cours d'algorithmique")

	err := runCmd(cli, "events", "-month", "march")
	assert.True(t, core.IsValidation(err))

	err = runCmd(cli, "users")
	assert.Equal(t, errForbidden, err)
	assert.Equal(t, "Vous n'avez pas la permission d'effectuer cette action.", cli.messages.ForError("fr", err))

	withPassword(t, "admin123")
	require.NoError(t, runCmd(cli, "login", "-username", "admin"))
	out.Reset()
	require.NoError(t, runCmd(cli, "users", "-role", "user"))
	assert.Contains(t, out.String(), "fmbuyi")
	assert.NotContains(t, out.String(), "admin@masomo.test")
}

func Test_commandLine_settings(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, runCmd(cli, "settings"))
	assert.Contains(t, out.String(), "language: fr\ntheme: light\n")

	out.Reset()
	require.NoError(t, runCmd(cli, "settings", "-lang", "en", "-theme", "dark", "-course", "L2"))
	assert.Equal(t, "language: en\ntheme: dark\ncourse: L2\n", out.String())

	// unsupported values fall back to the defaults
	out.Reset()
	require.NoError(t, runCmd(cli, "settings", "-lang", "sw"))
	assert.Contains(t, out.String(), "language: fr\n")
}

func Test_commandLine_mode(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, runCmd(cli, "mode"))
	assert.Contains(t, out.String(), "mode: MOCK")

	err := runCmd(cli, "mode", "real")
	assert.Equal(t, errBackendUnavailable, err)
	assert.True(t, cli.factory.IsMockMode())

	require.NoError(t, runCmd(cli, "mode", "mock"))
	mode, ok, _ := cli.storage.Get(cli.modeKey)
	assert.True(t, ok)
	assert.Equal(t, "MOCK", mode)

	out.Reset()
	require.NoError(t, runCmd(cli, "health"))
	assert.Contains(t, out.String(), "unavailable")
}
