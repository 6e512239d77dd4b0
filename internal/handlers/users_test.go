package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"geochat-service/internal/apperr"
	"geochat-service/internal/cache"
	"geochat-service/internal/mocks"
	"geochat-service/internal/models"
	"geochat-service/internal/repositories"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/users", handler.Create)
	r.GET("/users", handler.List)
	r.GET("/users/:id", handler.Get)
	r.PUT("/users/:id", handler.Update)
	r.GET("/users/search", handler.SearchByPIN)
	return r
}

func TestCreateUserSuccess(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p repositories.CreateUserParams) bool {
		return p.Name == "Alice" && p.Email == "alice@example.com"
	})).Return(models.User{ID: "u1", Name: "Alice", PIN: "123456"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"Alice","email":"alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "123456", resp.User.PIN)
	repo.AssertExpectations(t)
}

func TestCreateUserRejectsBadEmail(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	body := bytes.NewBufferString(`{"name":"Alice","email":"not-an-email"}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateUserEmailConflict(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("Create", mock.Anything, mock.Anything).
		Return(models.User{}, apperr.Conflictf("email already registered")).Once()

	body := bytes.NewBufferString(`{"name":"Alice","email":"alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	repo.AssertExpectations(t)
}

func TestGetUserNotFound(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("GetByID", mock.Anything, "missing").
		Return(models.User{}, apperr.NotFoundf("user not found")).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestUpdateUserRejectsUnknownField(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	body := bytes.NewBufferString(`{"name":"Bob","pin":"999999"}`)
	req := httptest.NewRequest(http.MethodPut, "/users/u1", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "Update")
}

func TestSearchByPINSuccess(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("SearchByPIN", mock.Anything, "123456", "caller").
		Return(models.PublicProfile{ID: "u2", Name: "Bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?pin=123456&userId=caller", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(1), resp["count"])

	found := resp["users"].([]any)[0].(map[string]any)
	assert.Equal(t, "u2", found["id"])
	assert.NotContains(t, found, "pin")
	assert.NotContains(t, found, "email")
	assert.NotContains(t, found, "location_sharing_requests")
	assert.NotContains(t, found, "location_sharing_with")
	repo.AssertExpectations(t)
}

func TestSearchByPINNoMatchIsEmptyList(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("SearchByPIN", mock.Anything, "654321", "caller").
		Return(models.PublicProfile{}, apperr.NotFoundf("no user with this pin")).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?pin=654321&userId=caller", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(0), resp["count"])
	repo.AssertExpectations(t)
}

func TestSearchByPINMalformedInputMatchesNothing(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	for _, pin := range []string{"", "12345", "1234567", "12a456"} {
		req := httptest.NewRequest(http.MethodGet, "/users/search?pin="+pin+"&userId=caller", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "pin %q", pin)
		var resp map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, float64(0), resp["count"], "pin %q", pin)
	}
	repo.AssertNotCalled(t, "SearchByPIN")
}

func TestSearchByPINRequiresCaller(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	req := httptest.NewRequest(http.MethodGet, "/users/search?pin=123456", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "SearchByPIN")
}

func TestListUsersWithRadius(t *testing.T) {
	repo := new(mocks.UserRepositoryMock)
	router := setupUserRouter(NewUserHandler(repo, cache.NewPresence("")))

	repo.On("List", mock.Anything, mock.MatchedBy(func(p repositories.ListUsersParams) bool {
		return p.OnlineOnly && p.Lat != nil && *p.Lat == 51.5 && p.RadiusKm == 5
	})).Return([]models.PublicProfile{{ID: "u2", Name: "Bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users?online=true&lat=51.5&lng=-0.1&radius=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	listed := resp["users"].([]any)[0].(map[string]any)
	assert.NotContains(t, listed, "pin")
	assert.NotContains(t, listed, "location_sharing_with")
	repo.AssertExpectations(t)
}
