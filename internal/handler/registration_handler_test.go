package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/models"
	"github.com/a1gato/olimpiad/internal/service"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

type fakeRoomFinder struct {
	room *models.Room
	err  error
}

func (f *fakeRoomFinder) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.room, nil
}

type fakeStudentWriter struct {
	count     int
	createErr error
}

func (f *fakeStudentWriter) CountByRoom(ctx context.Context, roomID string) (int, error) {
	return f.count, nil
}

func (f *fakeStudentWriter) Create(ctx context.Context, student *models.Student) error {
	return f.createErr
}

func registrationBody(t *testing.T, roomID string) *bytes.Reader {
	t.Helper()
	payload, err := json.Marshal(models.RegisterStudentRequest{
		FirstName: "Aziz",
		LastName:  "Karimov",
		Phone:     "+998901234567",
		ClassName: "9A",
		RoomID:    roomID,
	})
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func TestRegistrationHandlerCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	svc := service.NewRegistrationService(
		&fakeRoomFinder{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}},
		&fakeStudentWriter{count: 10},
		nil, nil, nil, validator.New(), zap.NewNop())
	handler := NewRegistrationHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", registrationBody(t, roomID))

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	var student models.Student
	require.NoError(t, json.Unmarshal(envelope.Data, &student))
	require.NotNil(t, student.RoomID)
	assert.Equal(t, roomID, *student.RoomID)
}

func TestRegistrationHandlerRoomFull(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	svc := service.NewRegistrationService(
		&fakeRoomFinder{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}},
		&fakeStudentWriter{count: 30},
		nil, nil, nil, validator.New(), zap.NewNop())
	handler := NewRegistrationHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", registrationBody(t, roomID))

	handler.Register(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ROOM_FULL", envelope.Error.Code)
}

func TestRegistrationHandlerBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewRegistrationService(&fakeRoomFinder{}, &fakeStudentWriter{}, nil, nil, nil, validator.New(), zap.NewNop())
	handler := NewRegistrationHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader([]byte("{")))

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
