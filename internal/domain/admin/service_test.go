package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
)

type mockStatsRepo struct {
	counts *Counts
	err    error
}

func (m *mockStatsRepo) Counts(_ context.Context) (*Counts, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.counts, nil
}

func sampleCounts() *Counts {
	c := NewCounts()
	c.UsersByRole[auth.RolePatient] = 7
	c.UsersByRole[auth.RoleDoctor] = 3
	c.UsersByRole[auth.RoleAdmin] = 1
	c.AppointmentsByStatus[scheduling.StatusBooked] = 4
	c.AppointmentsByStatus[scheduling.StatusCompleted] = 5
	c.AppointmentsByStatus[scheduling.StatusCancelled] = 2
	c.Prescriptions = 5
	return c
}

func TestService_Summarize(t *testing.T) {
	svc := NewService(&mockStatsRepo{counts: sampleCounts()})

	a, err := svc.Summarize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Analytics{
		Users:         UserStats{TotalPatients: 7, TotalDoctors: 3, TotalAdmins: 1, TotalUsers: 11},
		Appointments:  AppointmentStats{TotalAppointments: 11, Booked: 4, Completed: 5, Cancelled: 2},
		Prescriptions: PrescriptionStats{TotalPrescriptions: 5},
	}
	if *a != want {
		t.Errorf("expected %+v, got %+v", want, *a)
	}
}

func TestService_Summarize_TotalsAreSums(t *testing.T) {
	tests := []struct {
		name   string
		counts *Counts
	}{
		{"empty", NewCounts()},
		{"patients only", &Counts{UsersByRole: map[auth.Role]int{auth.RolePatient: 2}, AppointmentsByStatus: map[scheduling.Status]int{}}},
		{"sample", sampleCounts()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewService(&mockStatsRepo{counts: tt.counts}).Summarize(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			u := a.Users
			if u.TotalUsers != u.TotalPatients+u.TotalDoctors+u.TotalAdmins {
				t.Errorf("total_users %d != sum of roles", u.TotalUsers)
			}
			ap := a.Appointments
			if ap.TotalAppointments != ap.Booked+ap.Completed+ap.Cancelled {
				t.Errorf("total_appointments %d != sum of statuses", ap.TotalAppointments)
			}
		})
	}
}

func TestService_Summarize_Error(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewService(&mockStatsRepo{err: boom}).Summarize(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestHandler_GetAnalytics(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(zerolog.Nop())
	NewHandler(NewService(&mockStatsRepo{counts: sampleCounts()})).RegisterRoutes(e.Group(""))

	tests := []struct {
		name string
		role auth.Role
		want int
	}{
		{"admin", auth.RoleAdmin, http.StatusOK},
		{"doctor", auth.RoleDoctor, http.StatusForbidden},
		{"patient", auth.RolePatient, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
			req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: uuid.New(), Role: tt.role}))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want != http.StatusOK {
				return
			}
			var body map[string]map[string]int
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["users"]["total_users"] != 11 || body["prescriptions"]["total_prescriptions"] != 5 {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}
