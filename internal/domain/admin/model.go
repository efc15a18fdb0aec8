package admin

import (
	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/auth"
)

// Counts is the raw material of the analytics summary, read in one pass.
type Counts struct {
	UsersByRole          map[auth.Role]int
	AppointmentsByStatus map[scheduling.Status]int
	Prescriptions        int
}

func NewCounts() *Counts {
	return &Counts{
		UsersByRole:          make(map[auth.Role]int),
		AppointmentsByStatus: make(map[scheduling.Status]int),
	}
}

type UserStats struct {
	TotalPatients int `json:"total_patients"`
	TotalDoctors  int `json:"total_doctors"`
	TotalAdmins   int `json:"total_admins"`
	TotalUsers    int `json:"total_users"`
}

type AppointmentStats struct {
	TotalAppointments int `json:"total_appointments"`
	Booked            int `json:"booked"`
	Completed         int `json:"completed"`
	Cancelled         int `json:"cancelled"`
}

type PrescriptionStats struct {
	TotalPrescriptions int `json:"total_prescriptions"`
}

// Analytics is the body of GET /admin/analytics.
type Analytics struct {
	Users         UserStats         `json:"users"`
	Appointments  AppointmentStats  `json:"appointments"`
	Prescriptions PrescriptionStats `json:"prescriptions"`
}
