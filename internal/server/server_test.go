package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatkit/internal/auth"
	"github.com/nfrund/chatkit/internal/chat"
	"github.com/nfrund/chatkit/internal/config"
	"github.com/nfrund/chatkit/internal/handlers"
	"github.com/nfrund/chatkit/internal/presence"
	"github.com/nfrund/chatkit/internal/pubsub"
	"github.com/nfrund/chatkit/internal/storage"
	"github.com/nfrund/chatkit/internal/testutils"
	"github.com/nfrund/chatkit/internal/ws"
)

const testSecret = "a-very-secret-key-for-testing-!"

// newTestServer wires a full Server against in-memory stores, registers
// the routes and starts the realtime subscribers.
func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	users := testutils.NewFakeUserRepo()
	messages := testutils.NewFakeMessageRepo()

	bus := pubsub.NewWatermillBus()
	t.Cleanup(func() { bus.Close() })

	registry := presence.NewRegistry(bus)
	bridge := ws.NewBridge(registry)
	images := storage.NewImageStore(afero.NewMemMapFs(), cfg.UploadDir, cfg.AppBaseURL)

	issuer := auth.NewIssuer(testSecret, time.Hour)
	authService := auth.NewService(issuer, users)
	authHandler := handlers.NewAuthHandler(users, issuer, images)

	chatService := chat.NewService(messages, users, images, bus)
	chatHandler := chat.NewHandler(chatService)
	fanout := chat.NewFanout(registry, bridge)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = httpErrorHandler

	s := &Server{
		E:           e,
		Cfg:         cfg,
		bus:         bus,
		registry:    registry,
		bridge:      bridge,
		fanout:      fanout,
		authService: authService,
		authHandler: authHandler,
		chatHandler: chatHandler,
		images:      images,
	}
	s.RegisterRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, s.bridge.Start(ctx, bus))
	require.NoError(t, s.fanout.Start(ctx, bus))

	return s
}

// signup creates an account over the API and returns the user plus the
// session cookie.
func signup(t *testing.T, baseURL, fullName, email string) (handlers.UserResponse, *http.Cookie) {
	t.Helper()

	body := `{"fullName":"` + fullName + `","email":"` + email + `","password":"password123"}`
	res, err := http.Post(baseURL+"/api/auth/signup", echo.MIMEApplicationJSON, strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var user handlers.UserResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&user))

	for _, cookie := range res.Cookies() {
		if cookie.Name == auth.CookieName {
			return user, cookie
		}
	}
	t.Fatal("signup did not set the session cookie")
	return user, nil
}

// readEvent reads frames until one carries the wanted event name.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) ws.Event {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s event", name)

		var event ws.Event
		require.NoError(t, json.Unmarshal(data, &event))
		if event.Name == name {
			return event
		}
	}
}

func TestServer_RealtimeMessageDelivery(t *testing.T) {
	s := newTestServer(t, &config.Config{
		AppBaseURL: "http://localhost:8080",
		UploadDir:  "uploads",
	})
	srv := httptest.NewServer(s.E)
	defer srv.Close()

	alice, aliceCookie := signup(t, srv.URL, "Alice Doe", "alice@example.com")
	bob, _ := signup(t, srv.URL, "Bob Roe", "bob@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Bob opens the realtime channel, identified by the handshake param.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=" + url.QueryEscape(bob.ID)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	// Connecting puts bob in the online set and broadcasts it to him.
	online := readEvent(t, ctx, conn, ws.EventOnlineUsers)
	var users []string
	require.NoError(t, json.Unmarshal(online.Data, &users))
	assert.Contains(t, users, bob.ID)

	// Alice sends bob a message over the HTTP API.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/messages/send/"+url.PathEscape(bob.ID),
		strings.NewReader(`{"text":"hello over the wire"}`))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(aliceCookie)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The message arrives on bob's live connection.
	event := readEvent(t, ctx, conn, ws.EventNewMessage)
	var delivered map[string]any
	require.NoError(t, json.Unmarshal(event.Data, &delivered))
	assert.Equal(t, "hello over the wire", delivered["text"])
	assert.Equal(t, alice.ID, delivered["senderId"])
}

func TestServer_OfflineSendPersists(t *testing.T) {
	s := newTestServer(t, &config.Config{
		AppBaseURL: "http://localhost:8080",
		UploadDir:  "uploads",
	})
	srv := httptest.NewServer(s.E)
	defer srv.Close()

	alice, aliceCookie := signup(t, srv.URL, "Alice Doe", "alice@example.com")
	carol, carolCookie := signup(t, srv.URL, "Carol Poe", "carol@example.com")

	// Carol holds no realtime connection; the send still succeeds.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/messages/send/"+url.PathEscape(carol.ID),
		strings.NewReader(`{"text":"read this later"}`))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(aliceCookie)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// The message appears on carol's next conversation fetch.
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/api/messages/"+url.PathEscape(alice.ID), nil)
	require.NoError(t, err)
	req.AddCookie(carolCookie)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var msgs []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "read this later", msgs[0]["text"])
}

func TestServer_ProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, &config.Config{
		AppBaseURL: "http://localhost:8080",
		UploadDir:  "uploads",
	})
	srv := httptest.NewServer(s.E)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/messages/users")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestServer_StaticHook(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log('hi')"), 0o644))

	s := newTestServer(t, &config.Config{
		AppBaseURL: "http://localhost:8080",
		UploadDir:  "uploads",
		StaticDir:  staticDir,
	})
	srv := httptest.NewServer(s.E)
	defer srv.Close()

	res, err := http.Get(srv.URL + "/app.js")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res2, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)
}
