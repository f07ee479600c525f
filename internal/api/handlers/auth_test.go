package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dom/english-proficiency-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration returns temp token",
			request: map[string]string{
				"firstName": "Amina",
				"lastName":  "Otieno",
				"email":     "amina@example.com",
				"phone":     "0712345678",
				"password":  "password123",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result map[string]interface{}
				testutil.AssertJSONResponse(t, resp, &result)
				assert.NotEmpty(t, result["tempToken"])
				assert.NotEmpty(t, result["expiresAt"])
			},
		},
		{
			name: "missing email",
			request: map[string]string{
				"firstName": "Amina",
				"lastName":  "Otieno",
				"phone":     "0712345678",
				"password":  "password123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "short password",
			request: map[string]string{
				"firstName": "Amina",
				"lastName":  "Otieno",
				"email":     "amina@example.com",
				"phone":     "0712345678",
				"password":  "short",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate email of durable account",
			request: map[string]string{
				"firstName": "Amina",
				"lastName":  "Otieno",
				"email":     "taken@example.com",
				"phone":     "0712345678",
				"password":  "password123",
			},
			setup: func() {
				testutil.NewUserBuilder().
					WithEmail("taken@example.com").
					Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)

			if tt.setup != nil {
				tt.setup()
			}

			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.APIURL("/register"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_RegisterDoesNotCreateAccount(t *testing.T) {
	ts := testutil.NewTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"firstName": "Pending",
		"lastName":  "User",
		"email":     "pending@example.com",
		"phone":     "0712345678",
		"password":  "password123",
	})
	resp, err := http.Post(ts.APIURL("/register"), "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Registration must not be able to log in before payment.
	loginBody, _ := json.Marshal(map[string]string{
		"email":    "pending@example.com",
		"password": "password123",
	})
	loginResp, err := http.Post(ts.APIURL("/login"), "application/json", bytes.NewBuffer(loginBody))
	require.NoError(t, err)
	defer loginResp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("login@example.com").
		WithPassword("correctpassword").
		Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"email":    user.Email,
				"password": rawPassword,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result struct {
					User struct {
						ID           string `json:"id"`
						Email        string `json:"email"`
						PasswordHash string `json:"passwordHash"`
					} `json:"user"`
					AuthToken string `json:"authToken"`
				}
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, user.ID.String(), result.User.ID)
				assert.NotEmpty(t, result.AuthToken)
				assert.Empty(t, result.User.PasswordHash, "password hash must never be serialized")
			},
		},
		{
			name: "wrong password",
			request: map[string]string{
				"email":    user.Email,
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown email",
			request: map[string]string{
				"email":    "nobody@example.com",
				"password": "correctpassword",
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "missing password",
			request: map[string]string{
				"email": user.Email,
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.APIURL("/login"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	authToken := login(t, ts, user.Email, password)

	// Token works before logout
	resp := authedGet(t, ts, "/users/"+user.ID.String(), authToken)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Logout revokes it
	req, _ := http.NewRequest(http.MethodPost, ts.APIURL("/logout"), nil)
	req.Header.Set("x-auth-token", authToken)
	logoutResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	logoutResp.Body.Close()
	require.Equal(t, http.StatusOK, logoutResp.StatusCode)

	// Token no longer resolves
	resp = authedGet(t, ts, "/users/"+user.ID.String(), authToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_GetUser(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, password := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
	authToken := login(t, ts, user.Email, password)

	t.Run("self lookup succeeds", func(t *testing.T) {
		resp := authedGet(t, ts, "/users/"+user.ID.String(), authToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		testutil.AssertJSONResponse(t, resp, &result)
		assert.Equal(t, user.Email, result["email"])
		assert.NotContains(t, result, "passwordHash")
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		resp := authedGet(t, ts, "/users/"+other.ID.String(), authToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		resp, err := http.Get(ts.APIURL("/users/" + user.ID.String()))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

// login authenticates via the API and returns the auth token.
func login(t *testing.T, ts *testutil.TestServer, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(ts.APIURL("/login"), "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		AuthToken string `json:"authToken"`
	}
	testutil.AssertJSONResponse(t, resp, &result)
	require.NotEmpty(t, result.AuthToken)
	return result.AuthToken
}

// authedGet performs a GET with the auth token header.
func authedGet(t *testing.T, ts *testutil.TestServer, path, authToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.APIURL(path), nil)
	require.NoError(t, err)
	req.Header.Set("x-auth-token", authToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}
