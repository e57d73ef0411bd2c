package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/dreammatch/internal/featureflags"
	"github.com/aryan0dhankhar/dreammatch/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/dreammatch/internal/matching"
	"github.com/aryan0dhankhar/dreammatch/internal/notify"
	"github.com/aryan0dhankhar/dreammatch/internal/repository"
	"github.com/aryan0dhankhar/dreammatch/internal/security/audit"
	"github.com/aryan0dhankhar/dreammatch/internal/security/auth"
	"github.com/aryan0dhankhar/dreammatch/internal/security/ratelimit"
	"github.com/aryan0dhankhar/dreammatch/internal/service"
)

type testApp struct {
	server *httptest.Server
	hub    *notify.Hub
}

func newTestApp(t *testing.T, extraDeps map[string]Pinger) *testApp {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	dreams := repository.NewDreamRepository(client, log)
	matches := repository.NewMatchRepository(client, log)
	users := repository.NewRedisUserRepository(client, log)

	tokens := auth.NewTokenManager("handler-test-secret-handler-test", "dreammatch", time.Hour)
	hub := notify.NewHub(8, log)
	flags := featureflags.FromMap(map[string]string{"FLAG_MATCH_NOTIFICATIONS": "on"})

	authSvc := service.NewAuthService(users, dreams, tokens, log)
	dreamSvc := service.NewDreamService(dreams, matches, users, matching.NewGenerator(), log,
		service.WithNotifier(hub, flags),
	)

	deps := map[string]Pinger{"redis": client}
	for name, p := range extraDeps {
		deps[name] = p
	}

	limiter := ratelimit.NewLimiter(1000, time.Minute)
	t.Cleanup(limiter.Stop)

	router := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(authSvc, log),
		Dreams:         NewDreamHandler(dreamSvc, log),
		Health:         NewHealthHandler(deps, log),
		Notifications:  NewNotificationsHandler(hub, tokens, []string{"http://localhost:3000"}, log),
		Tokens:         tokens,
		Limiter:        limiter,
		Audit:          audit.NewLogger(log),
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testApp{server: srv, hub: hub}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (a *testApp) register(t *testing.T, username string) service.AuthResult {
	t.Helper()
	resp, data := a.do(t, http.MethodPost, "/api/auth/register", "", CredentialsRequest{Username: username, Password: "Password123"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var res service.AuthResult
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

var (
	flyingDream = service.DreamInput{Keywords: []string{"flying", "water"}, FullDescription: "I was flying over water"}
	chaseDream  = service.DreamInput{Keywords: []string{"flying", "chase"}, FullDescription: "a long chase through a city"}
)

func TestDreamFlow(t *testing.T) {
	app := newTestApp(t, nil)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")

	resp, _ := app.do(t, http.MethodPost, "/api/dreams", bob.Token, chaseDream)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, data := app.do(t, http.MethodPost, "/api/dreams", alice.Token, flyingDream)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var sub struct {
		Dream struct {
			ID string `json:"id"`
		} `json:"dream"`
		Matches []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"matches"`
		Strategy string `json:"strategy"`
	}
	require.NoError(t, json.Unmarshal(data, &sub))
	assert.Equal(t, "structured", sub.Strategy)
	require.Len(t, sub.Matches, 1)
	assert.Equal(t, 27.5, sub.Matches[0].Score)
	matchID := sub.Matches[0].ID

	resp, data = app.do(t, http.MethodGet, "/api/matches", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Matches []struct {
			ID                  string `json:"id"`
			MatchedWithUsername string `json:"matchedWithUsername"`
			Reason              string `json:"reason"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(data, &listed))
	require.Len(t, listed.Matches, 1)
	assert.Equal(t, "bob", listed.Matches[0].MatchedWithUsername)
	assert.NotEmpty(t, listed.Matches[0].Reason)

	resp, _ = app.do(t, http.MethodPost, "/api/matches/"+matchID+"/accept", bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = app.do(t, http.MethodPost, "/api/matches/"+matchID+"/accept", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"status":"accepted"`)

	resp, _ = app.do(t, http.MethodGet, "/api/matches/missing/accept", alice.Token, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/matches/missing/reject", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = app.do(t, http.MethodGet, "/api/dreams", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), sub.Dream.ID)

	resp, _ = app.do(t, http.MethodGet, "/api/dreams/"+sub.Dream.ID, bob.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	carol := app.register(t, "carol")

	resp, _ := app.do(t, http.MethodPost, "/api/auth/register", "", CredentialsRequest{Username: "CAROL", Password: "Password123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/auth/login", "", CredentialsRequest{Username: "carol", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/auth/change-password", carol.Token,
		ChangePasswordRequest{OldPassword: "Password123", NewPassword: "Password456"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/auth/login", "", CredentialsRequest{Username: "carol", Password: "Password456"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = app.do(t, http.MethodDelete, "/api/account", carol.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/auth/login", "", CredentialsRequest{Username: "carol", Password: "Password456"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestRejections(t *testing.T) {
	app := newTestApp(t, nil)
	dave := app.register(t, "dave")

	resp, _ := app.do(t, http.MethodGet, "/api/dreams", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/dreams", dave.Token, service.DreamInput{Title: "only a title"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/dreams", strings.NewReader("keywords=fire"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+dave.Token)
	r, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, r.StatusCode)

	req, err = http.NewRequest(http.MethodOptions, app.server.URL+"/api/dreams", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	r, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNoContent, r.StatusCode)
	assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
}

func TestScoreEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp, data := app.do(t, http.MethodPost, "/api/score", "", ScoreRequest{A: flyingDream, B: chaseDream})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res struct {
		Score     float64            `json:"score"`
		Strategy  string             `json:"strategy"`
		Breakdown map[string]float64 `json:"breakdown"`
		Reason    string             `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, 27.5, res.Score)
	assert.Equal(t, "structured", res.Strategy)
	assert.Len(t, res.Breakdown, 7)
	assert.NotEmpty(t, res.Reason)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	resp, _ := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, data := app.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"redis":"ok"`)
	resp, data = app.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "dreammatch_")

	broken := newTestApp(t, map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	resp, data = broken.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(data), "connection refused")
}

func TestMatchStream(t *testing.T) {
	app := newTestApp(t, nil)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/ws/matches"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+alice.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.hub.Subscribers(alice.UserID) == 1 }, 2*time.Second, 10*time.Millisecond)

	r, _ := app.do(t, http.MethodPost, "/api/dreams", bob.Token, chaseDream)
	require.Equal(t, http.StatusCreated, r.StatusCode)
	r, _ = app.do(t, http.MethodPost, "/api/dreams", alice.Token, flyingDream)
	require.Equal(t, http.StatusCreated, r.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventMatchCreated, ev.Type)
	assert.Equal(t, alice.UserID, ev.Match.OwnerID)
	assert.Equal(t, bob.UserID, ev.Match.MatchedWithUserID)
}
