package admin

import (
	"context"
	"fmt"

	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/auth"
)

type Service struct {
	stats StatsRepository
}

func NewService(stats StatsRepository) *Service {
	return &Service{stats: stats}
}

// Summarize recomputes the analytics on every call. Totals are the sums of
// their parts, so total_users always equals patients + doctors + admins.
func (s *Service) Summarize(ctx context.Context) (*Analytics, error) {
	c, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load counts: %w", err)
	}

	var a Analytics
	a.Users.TotalPatients = c.UsersByRole[auth.RolePatient]
	a.Users.TotalDoctors = c.UsersByRole[auth.RoleDoctor]
	a.Users.TotalAdmins = c.UsersByRole[auth.RoleAdmin]
	a.Users.TotalUsers = a.Users.TotalPatients + a.Users.TotalDoctors + a.Users.TotalAdmins

	a.Appointments.Booked = c.AppointmentsByStatus[scheduling.StatusBooked]
	a.Appointments.Completed = c.AppointmentsByStatus[scheduling.StatusCompleted]
	a.Appointments.Cancelled = c.AppointmentsByStatus[scheduling.StatusCancelled]
	a.Appointments.TotalAppointments = a.Appointments.Booked + a.Appointments.Completed + a.Appointments.Cancelled

	a.Prescriptions.TotalPrescriptions = c.Prescriptions
	return &a, nil
}
