package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/chatkit/internal/auth"
	"github.com/nfrund/chatkit/internal/handlers"
	"github.com/nfrund/chatkit/internal/middleware"
	"github.com/nfrund/chatkit/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-secret-key-for-testing-!"

type stubResolver struct {
	url string
	err error
}

func (r *stubResolver) Save(ctx context.Context, payload string) (string, error) {
	return r.url, r.err
}

type authFixture struct {
	handler *handlers.AuthHandler
	users   *testutils.FakeUserRepo
	echo    *echo.Echo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := testutils.NewFakeUserRepo()
	issuer := auth.NewIssuer(testSecret, time.Hour)
	e := echo.New()
	e.Validator = handlers.NewValidator()
	return &authFixture{
		handler: handlers.NewAuthHandler(users, issuer, &stubResolver{url: "http://localhost:8080/uploads/avatar.png"}),
		users:   users,
		echo:    e,
	}
}

func (f *authFixture) request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return f.echo.NewContext(req, rec), rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == auth.CookieName {
			return cookie
		}
	}
	return nil
}

func TestSignup_Success(t *testing.T) {
	f := newAuthFixture(t)

	c, rec := f.request(http.MethodPost, "/api/auth/signup",
		`{"fullName":"Alice Doe","email":"alice@example.com","password":"password123"}`)
	require.NoError(t, f.handler.Signup(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	var resp handlers.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Alice Doe", resp.FullName)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.NotEmpty(t, resp.ID)
	assert.Contains(t, resp.ProfilePic, "avatar.iran.liara.run")

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie, "signup must set the session cookie")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestSignup_Validation(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "missing fields",
			body:    `{"fullName":"","email":"alice@example.com","password":"password123"}`,
			message: "All fields are required",
		},
		{
			name:    "short password",
			body:    `{"fullName":"Alice Doe","email":"alice@example.com","password":"12345"}`,
			message: "Password must be at least 6 characters",
		},
		{
			name:    "malformed email",
			body:    `{"fullName":"Alice Doe","email":"not-an-email","password":"password123"}`,
			message: "Invalid email",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuthFixture(t)
			c, rec := f.request(http.MethodPost, "/api/auth/signup", tc.body)
			require.NoError(t, f.handler.Signup(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.message, resp.Message)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.users.Seed("Alice Doe", "alice@example.com", "password123")

	c, rec := f.request(http.MethodPost, "/api/auth/signup",
		`{"fullName":"Another Alice","email":"alice@example.com","password":"password456"}`)
	require.NoError(t, f.handler.Signup(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Email already exists", resp.Message)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.users.Seed("Alice Doe", "alice@example.com", "password123")

	c, rec := f.request(http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"password123"}`)
	require.NoError(t, f.handler.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	var resp handlers.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, seeded.Key(), resp.ID)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)
	f.users.Seed("Alice Doe", "alice@example.com", "password123")

	// Wrong password and unknown email must be indistinguishable.
	for _, body := range []string{
		`{"email":"alice@example.com","password":"wrong-password"}`,
		`{"email":"nobody@example.com","password":"password123"}`,
	} {
		c, rec := f.request(http.MethodPost, "/api/auth/login", body)
		require.NoError(t, f.handler.Login(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid credentials", resp.Message)
		assert.Nil(t, sessionCookie(t, rec))
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newAuthFixture(t)

	c, rec := f.request(http.MethodPost, "/api/auth/logout", "")
	require.NoError(t, f.handler.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestUpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.users.Seed("Alice Doe", "alice@example.com", "password123")

	c, rec := f.request(http.MethodPut, "/api/auth/update-profile",
		`{"profilePic":"data:image/png;base64,aGk="}`)
	c.Set(middleware.UserContextKey, alice)

	require.NoError(t, f.handler.UpdateProfile(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://localhost:8080/uploads/avatar.png", resp.ProfilePic)

	// The change is persisted, not just echoed.
	stored, err := f.users.FindByID(context.Background(), alice.Key())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/avatar.png", stored.ProfilePic)
}

func TestUpdateProfile_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.users.Seed("Alice Doe", "alice@example.com", "password123")
	f.users.Delete(alice.Key())

	c, rec := f.request(http.MethodPut, "/api/auth/update-profile",
		`{"profilePic":"data:image/png;base64,aGk="}`)
	c.Set(middleware.UserContextKey, alice)

	require.NoError(t, f.handler.UpdateProfile(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestUpdateProfile_MissingPayload(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.users.Seed("Alice Doe", "alice@example.com", "password123")

	c, rec := f.request(http.MethodPut, "/api/auth/update-profile", `{}`)
	c.Set(middleware.UserContextKey, alice)

	require.NoError(t, f.handler.UpdateProfile(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Profile pic is required", resp.Message)
}

func TestCheck_ReturnsCurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.users.Seed("Alice Doe", "alice@example.com", "password123")

	c, rec := f.request(http.MethodGet, "/api/auth/check", "")
	c.Set(middleware.UserContextKey, alice)

	require.NoError(t, f.handler.Check(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, alice.Key(), resp.ID)
	assert.NotContains(t, rec.Body.String(), "password")
}
