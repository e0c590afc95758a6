package auth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pilotdeck/pilotdeck/internal/auth"
	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/view"
	_ "github.com/pilotdeck/pilotdeck/testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stub, err := auth.NewStubAuthenticator("secret123", "test-key", time.Hour)
	require.NoError(t, err)

	store := session.NewStore(context.Background(), stub, session.NewRedisStorage(client, ""), nil)

	engine, err := view.NewEngine()
	require.NoError(t, err)

	h := auth.NewHandler(nil, store, stub, engine)
	g := guard.Middleware{Store: store}

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		h.MountRoutes(r, g)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func TestLoginPageRenders(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	require.Contains(t, body, `name="email"`)
	require.Contains(t, body, `name="password"`)
}

func TestLoginSuccessRedirectsToDashboard(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{"email": {"ops@example.com"}, "password": {"secret123"}}
	resp, err := noRedirectClient().PostForm(srv.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, guard.LandingRoute, resp.Header.Get("Location"))

	st := store.Snapshot()
	require.True(t, st.Authenticated)
	require.Equal(t, "ops@example.com", st.User.Email)
}

func TestLoginRejectedEmailShowsMessage(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{"email": {auth.RejectedEmail}, "password": {"x"}}
	resp, err := http.PostForm(srv.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, readAll(t, resp), "invalid credentials")
	require.False(t, store.Snapshot().Authenticated)
	require.NotEmpty(t, store.Snapshot().Err)
}

func TestLoginValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"email": {"not-an-email"}, "password": {""}}
	resp, err := http.PostForm(srv.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := readAll(t, resp)
	require.Contains(t, body, "Enter a valid email address")
	require.Contains(t, body, "This field is required")
}

func TestLoginPageRedirectsWhenAuthenticated(t *testing.T) {
	srv, store := newTestServer(t)

	err := store.Login(context.Background(), session.Credentials{Email: "ops@example.com", Password: "secret123"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/login", nil)
	require.NoError(t, err)
	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, guard.LandingRoute, resp.Header.Get("Location"))
}

func TestRegisterCreatesSession(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{
		"name":     {"New Operator"},
		"email":    {"new@example.com"},
		"password": {"secret123"},
	}
	resp, err := noRedirectClient().PostForm(srv.URL+"/auth/register", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, guard.LandingRoute, resp.Header.Get("Location"))
	require.True(t, store.Snapshot().Authenticated)
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	srv, store := newTestServer(t)

	form := url.Values{
		"name":     {"New Operator"},
		"email":    {"new@example.com"},
		"password": {"short"},
	}
	resp, err := http.PostForm(srv.URL+"/auth/register", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, readAll(t, resp), "Too short")
	require.False(t, store.Snapshot().Authenticated)
}

func TestForgotPasswordAlwaysConfirms(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"email": {"whoever@example.com"}}
	resp, err := http.PostForm(srv.URL+"/auth/forgot-password", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readAll(t, resp), "If an account exists")
}

func TestLogoutClearsSession(t *testing.T) {
	srv, store := newTestServer(t)

	err := store.Login(context.Background(), session.Credentials{Email: "ops@example.com", Password: "secret123"})
	require.NoError(t, err)

	resp, err := noRedirectClient().Post(srv.URL+"/auth/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, guard.LoginRoute, resp.Header.Get("Location"))
	require.False(t, store.Snapshot().Authenticated)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
