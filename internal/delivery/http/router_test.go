package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vramonlinebsc/hms/config"
	"github.com/vramonlinebsc/hms/internal/clock"
	"github.com/vramonlinebsc/hms/internal/delivery/http/handler"
	"github.com/vramonlinebsc/hms/internal/delivery/http/middleware"
	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/internal/repository"
	"github.com/vramonlinebsc/hms/internal/service"
	"github.com/vramonlinebsc/hms/internal/testutil"
	"github.com/vramonlinebsc/hms/internal/usecase"
	"github.com/vramonlinebsc/hms/pkg/apperror"
	"github.com/vramonlinebsc/hms/pkg/jwt"
	"github.com/vramonlinebsc/hms/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)

type testServer struct {
	router    *mux.Router
	jwt       *jwt.JWTService
	doctorID  uuid.UUID
	patientID uuid.UUID
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    apperror.Kind `json:"kind"`
		Message string        `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.NewLogger()
	clk := clock.NewFake(now)

	appointmentRepo := repository.NewAppointmentRepository()
	doctorRepo := repository.NewDoctorProfileRepository()
	penaltyRepo := repository.NewPenaltyRepository()
	auditRepo := repository.NewAuditLogRepository()

	auditService := service.NewAuditService(log, auditRepo)
	checker := service.NewConflictChecker(clk, appointmentRepo)
	penalties := usecase.NewPenaltyUsecase(db, log, penaltyRepo, testutil.NewRecordingQueue(), decimal.NewFromInt(10))
	appointments := usecase.NewAppointmentUsecase(db, log, clk, appointmentRepo, doctorRepo, checker, auditService, penalties)
	noShows := usecase.NewNoShowUsecase(db, log, clk, 15*time.Minute, appointmentRepo, appointments, penalties)

	limiter := service.NewMemoryRateLimiter(clk, time.Minute, rateLimit, log)
	t.Cleanup(limiter.Stop)

	v := validator.NewValidator()
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour})

	r := NewRouter(
		handler.NewAppointmentHandler(appointments, v),
		handler.NewDoctorHandler(usecase.NewDoctorUsecase(db, log, doctorRepo, auditService), v),
		handler.NewAuditLogHandler(usecase.NewAuditLogUsecase(db, log, auditRepo)),
		handler.NewOperationHandler(noShows, penalties),
		middleware.NewAuthMiddleware(jwtService, log),
		middleware.NewRateLimitMiddleware(limiter, log),
		middleware.NewCORSMiddleware("*"),
	)

	return &testServer{
		router:    r.Setup(),
		jwt:       jwtService,
		doctorID:  testutil.SeedDoctor(t, db),
		patientID: testutil.SeedPatient(t, db),
	}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, roleID int) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, roleID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) bookBody(startIn time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"doctor_id": s.doctorID,
		"start_at":  now.Add(startIn),
		"end_at":    now.Add(startIn + time.Hour),
	}
}

func TestBookAndConflictOverHTTP(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.token(t, s.patientID, entity.RoleIDPatient)

	rec, env := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(time.Hour))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var created struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, string(entity.AppointmentStatusBooked), created.Status)

	rec, env = s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(90*time.Minute))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.KindConflict, env.Error.Kind)
	assert.NotEmpty(t, env.Error.Message)

	rec, env = s.do(t, http.MethodGet, "/api/v1/appointments/"+created.ID.String(), s.token(t, s.doctorID, entity.RoleIDDoctor), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/appointments/"+created.ID.String(), s.token(t, uuid.New(), entity.RoleIDPatient), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperror.KindNotFound, env.Error.Kind)
}

func TestBookValidationOverHTTP(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.token(t, s.patientID, entity.RoleIDPatient)

	body := s.bookBody(time.Hour)
	body["end_at"] = now.Add(30 * time.Minute)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(-time.Hour))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.KindValidation, env.Error.Kind)
}

func TestCancelIdempotentOverHTTP(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.token(t, s.patientID, entity.RoleIDPatient)

	_, env := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(time.Hour))
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	path := "/api/v1/patient/appointments/" + created.ID.String() + "/cancel"
	for i, wantChanged := range []bool{true, false} {
		rec, env := s.do(t, http.MethodPatch, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, "call %d", i)

		var result struct {
			Appointment struct {
				Status string `json:"status"`
			} `json:"appointment"`
			Changed bool `json:"changed"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, wantChanged, result.Changed)
		assert.Equal(t, string(entity.AppointmentStatusCancelledByRequester), result.Appointment.Status)
	}

	// A doctor cancelling a cancelled appointment is an illegal transition.
	rec, env := s.do(t, http.MethodPatch, "/api/v1/doctor/appointments/"+created.ID.String()+"/cancel", s.token(t, s.doctorID, entity.RoleIDDoctor), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.KindIllegalTransition, env.Error.Kind)
}

func TestRateLimitedBeforeUsecase(t *testing.T) {
	s := newTestServer(t, 2)
	token := s.token(t, s.patientID, entity.RoleIDPatient)

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(time.Duration(i+1)*2*time.Hour))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/patient/appointments", token, s.bookBody(10*time.Hour))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apperror.KindRateLimited, env.Error.Kind)

	// The rejected booking never reached the store.
	rec, env = s.do(t, http.MethodGet, "/api/v1/patient/appointments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Total)

	// Other operations have their own budget.
	rec, _ = s.do(t, http.MethodPost, "/api/v1/admin/no-shows/reconcile", s.token(t, uuid.New(), entity.RoleIDAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t, 100)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/patient/appointments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patient/appointments", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := jwt.NewJWTService(config.JWTConfig{Secret: "other-secret", AccessExpiry: time.Hour})
	forged, err := other.GenerateAccessToken(s.patientID, entity.RoleIDPatient)
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/patient/appointments", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/appointments", s.token(t, s.patientID, entity.RoleIDPatient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/patient/appointments", s.token(t, s.patientID, 99), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/appointments", s.token(t, uuid.New(), entity.RoleIDAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, 100)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
