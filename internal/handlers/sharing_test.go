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
	"geochat-service/internal/location"
	"geochat-service/internal/mocks"
	"geochat-service/internal/models"
)

func setupSharingRouter(userRepo *mocks.UserRepositoryMock, locRepo *mocks.LiveLocationRepositoryMock) *gin.Engine {
	tracker := location.NewTracker(userRepo, locRepo, location.RemoteSource{})
	handler := NewSharingHandler(userRepo, tracker, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/location-sharing/request", handler.Request)
	r.POST("/location-sharing/accept", handler.Accept)
	r.POST("/location-sharing/reject", handler.Reject)
	r.GET("/location-sharing/state", handler.State)
	return r
}

func TestSharingRequestSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	userRepo.On("AppendSharingRequest", mock.Anything, "u2", "u1").Return(nil).Once()

	body := bytes.NewBufferString(`{"requester_id":"u1","target_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/location-sharing/request", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSharingRequestRejectsSelf(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	body := bytes.NewBufferString(`{"requester_id":"u1","target_id":"u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/location-sharing/request", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "AppendSharingRequest")
}

func TestSharingRequestTargetMissing(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	userRepo.On("AppendSharingRequest", mock.Anything, "ghost", "u1").
		Return(apperr.NotFoundf("user not found")).Once()

	body := bytes.NewBufferString(`{"requester_id":"u1","target_id":"ghost"}`)
	req := httptest.NewRequest(http.MethodPost, "/location-sharing/request", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSharingAcceptSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	userRepo.On("AcceptSharing", mock.Anything, "u2", "u1").Return(nil).Once()

	body := bytes.NewBufferString(`{"requester_id":"u1","target_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/location-sharing/accept", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSharingRejectSuccess(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	userRepo.On("RemoveSharingRequest", mock.Anything, "u2", "u1").Return(nil).Once()

	body := bytes.NewBufferString(`{"requester_id":"u1","target_id":"u2"}`)
	req := httptest.NewRequest(http.MethodPost, "/location-sharing/reject", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestSharingStateGrantedIdle(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	locRepo := new(mocks.LiveLocationRepositoryMock)
	router := setupSharingRouter(userRepo, locRepo)

	current := models.User{ID: "u1", SharingWith: models.StringList{"u2"}}
	other := models.User{ID: "u2", SharingWith: models.StringList{"u1"}}
	userRepo.On("GetPair", mock.Anything, "u1", "u2").Return(current, other, nil).Once()
	locRepo.On("IsActive", mock.Anything, "u1", "u2").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/location-sharing/state?userId=u1&otherId=u2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["has_permission"])
	assert.Equal(t, false, resp["is_sharing"])
	assert.Equal(t, string(location.StateGrantedIdle), resp["state"])
	userRepo.AssertExpectations(t)
	locRepo.AssertExpectations(t)
}

func TestSharingStateActiveBroadcast(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	locRepo := new(mocks.LiveLocationRepositoryMock)
	router := setupSharingRouter(userRepo, locRepo)

	current := models.User{ID: "u1", SharingWith: models.StringList{"u2"}}
	other := models.User{ID: "u2", SharingWith: models.StringList{"u1"}}
	userRepo.On("GetPair", mock.Anything, "u1", "u2").Return(current, other, nil).Once()
	locRepo.On("IsActive", mock.Anything, "u1", "u2").Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/location-sharing/state?userId=u1&otherId=u2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(location.StateGrantedSharing), resp["state"])
}

func TestSharingStateReceivedRequest(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	locRepo := new(mocks.LiveLocationRepositoryMock)
	router := setupSharingRouter(userRepo, locRepo)

	current := models.User{ID: "u1", SharingRequests: models.StringList{"u2"}}
	other := models.User{ID: "u2"}
	userRepo.On("GetPair", mock.Anything, "u1", "u2").Return(current, other, nil).Once()
	locRepo.On("IsActive", mock.Anything, "u1", "u2").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/location-sharing/state?userId=u1&otherId=u2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["has_received_request"])
	assert.Equal(t, string(location.StateRequestReceived), resp["state"])
}

func TestSharingStateRejectsSamePair(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	req := httptest.NewRequest(http.MethodGet, "/location-sharing/state?userId=u1&otherId=u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "GetPair")
}

func TestSharingStateRequiresBothIDs(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	router := setupSharingRouter(userRepo, new(mocks.LiveLocationRepositoryMock))

	req := httptest.NewRequest(http.MethodGet, "/location-sharing/state?userId=u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertNotCalled(t, "GetPair")
}
