package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a1gato/olimpiad/internal/models"
	appErrors "github.com/a1gato/olimpiad/pkg/errors"
)

type mockRegistrationRooms struct {
	room    *models.Room
	findErr error
}

func (m *mockRegistrationRooms) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.room, nil
}

type mockRegistrationStudents struct {
	count     int
	countErr  error
	createErr error
	created   []*models.Student
}

func (m *mockRegistrationStudents) CountByRoom(ctx context.Context, roomID string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockRegistrationStudents) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, student)
	m.count++
	return nil
}

type recordingFeed struct {
	events []models.TableEvent
}

func (f *recordingFeed) Publish(ctx context.Context, event models.TableEvent) {
	f.events = append(f.events, event)
}

func validRegistration(roomID string) models.RegisterStudentRequest {
	return models.RegisterStudentRequest{
		FirstName: "Aziz",
		LastName:  "Karimov",
		Phone:     "+998901234567",
		ClassName: "9A",
		RoomID:    roomID,
	}
}

func newRegistrationService(rooms *mockRegistrationRooms, students *mockRegistrationStudents, feed *recordingFeed) *RegistrationService {
	return NewRegistrationService(rooms, students, feed, nil, nil, validator.New(), zap.NewNop())
}

func TestRegistrationServiceRegisterSuccess(t *testing.T) {
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	rooms := &mockRegistrationRooms{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}}
	students := &mockRegistrationStudents{count: 29}
	feed := &recordingFeed{}
	svc := newRegistrationService(rooms, students, feed)

	student, err := svc.Register(context.Background(), validRegistration(roomID))
	require.NoError(t, err)
	require.NotNil(t, student.RoomID)
	assert.Equal(t, roomID, *student.RoomID)
	assert.Nil(t, student.Score1)
	assert.Nil(t, student.Score2)
	assert.Nil(t, student.Score)

	require.Len(t, feed.events, 1)
	assert.Equal(t, models.TableStudents, feed.events[0].Table)
	assert.Equal(t, models.EventInsert, feed.events[0].Action)
}

func TestRegistrationServiceRegisterRoomFull(t *testing.T) {
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	rooms := &mockRegistrationRooms{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}}
	students := &mockRegistrationStudents{count: 30}
	feed := &recordingFeed{}
	svc := newRegistrationService(rooms, students, feed)

	_, err := svc.Register(context.Background(), validRegistration(roomID))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrRoomFull.Code, appErr.Code)
	assert.Empty(t, students.created)
	assert.Empty(t, feed.events)
}

func TestRegistrationServiceRegisterOverCapacityCount(t *testing.T) {
	// A previous race can leave the count above capacity; the check still
	// rejects new registrations.
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	rooms := &mockRegistrationRooms{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}}
	students := &mockRegistrationStudents{count: 31}
	svc := newRegistrationService(rooms, students, &recordingFeed{})

	_, err := svc.Register(context.Background(), validRegistration(roomID))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomFull.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterRoomMissing(t *testing.T) {
	rooms := &mockRegistrationRooms{findErr: sql.ErrNoRows}
	svc := newRegistrationService(rooms, &mockRegistrationStudents{}, &recordingFeed{})

	_, err := svc.Register(context.Background(), validRegistration("5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterValidation(t *testing.T) {
	svc := newRegistrationService(&mockRegistrationRooms{}, &mockRegistrationStudents{}, &recordingFeed{})

	_, err := svc.Register(context.Background(), models.RegisterStudentRequest{FirstName: "Aziz"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterInsertFailure(t *testing.T) {
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	rooms := &mockRegistrationRooms{room: &models.Room{ID: roomID, Name: "Aula", Capacity: 30}}
	students := &mockRegistrationStudents{count: 5, createErr: assert.AnError}
	feed := &recordingFeed{}
	svc := newRegistrationService(rooms, students, feed)

	_, err := svc.Register(context.Background(), validRegistration(roomID))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, feed.events)
}

func TestRegistrationServiceSequentialFillsRoom(t *testing.T) {
	roomID := "5b7e2f1a-0c34-4d2b-9a3f-1f2e3d4c5b6a"
	rooms := &mockRegistrationRooms{room: &models.Room{ID: roomID, Name: "Kabinet 3", Capacity: 2}}
	students := &mockRegistrationStudents{}
	svc := newRegistrationService(rooms, students, &recordingFeed{})

	_, err := svc.Register(context.Background(), validRegistration(roomID))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), validRegistration(roomID))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), validRegistration(roomID))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRoomFull.Code, appErrors.FromError(err).Code)
	assert.Len(t, students.created, 2)
}
