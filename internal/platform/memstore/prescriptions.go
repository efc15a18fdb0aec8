package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/prescribing"
)

type prescriptionRepo struct{ s *Store }

func (s *Store) Prescriptions() prescribing.PrescriptionRepository { return prescriptionRepo{s} }

func withOwnMedicines(p prescribing.Prescription) prescribing.Prescription {
	p.Medicines = append([]prescribing.Medicine(nil), p.Medicines...)
	return p
}

func (r prescriptionRepo) Create(ctx context.Context, p *prescribing.Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.s.write(ctx, func(t *tables) error {
		if _, exists := t.rxByAppt[p.AppointmentID]; exists {
			return prescribing.ErrPrescriptionExists
		}
		t.prescriptions[p.ID] = withOwnMedicines(*p)
		t.rxByAppt[p.AppointmentID] = p.ID
		return nil
	})
}

func (r prescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*prescribing.Prescription, error) {
	var (
		p  prescribing.Prescription
		ok bool
	)
	r.s.read(ctx, func(t *tables) { p, ok = t.prescriptions[id] })
	if !ok {
		return nil, prescribing.ErrPrescriptionNotFound
	}
	p = withOwnMedicines(p)
	return &p, nil
}

func (r prescriptionRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*prescribing.Prescription, error) {
	var (
		id uuid.UUID
		ok bool
	)
	r.s.read(ctx, func(t *tables) { id, ok = t.rxByAppt[appointmentID] })
	if !ok {
		return nil, prescribing.ErrPrescriptionNotFound
	}
	return r.GetByID(ctx, id)
}

func (r prescriptionRepo) Update(ctx context.Context, p *prescribing.Prescription) error {
	return r.s.write(ctx, func(t *tables) error {
		old, ok := t.prescriptions[p.ID]
		if !ok {
			return prescribing.ErrPrescriptionNotFound
		}
		old.Notes = p.Notes
		old.Medicines = p.Medicines
		old.UpdatedAt = p.UpdatedAt
		t.prescriptions[p.ID] = withOwnMedicines(old)
		return nil
	})
}

func (r prescriptionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(t *tables) error {
		p, ok := t.prescriptions[id]
		if !ok {
			return prescribing.ErrPrescriptionNotFound
		}
		delete(t.prescriptions, id)
		delete(t.rxByAppt, p.AppointmentID)
		return nil
	})
}

func (r prescriptionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*prescribing.Prescription, int, error) {
	return r.list(ctx, func(p prescribing.Prescription) bool { return p.PatientID == patientID }, limit, offset)
}

func (r prescriptionRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*prescribing.Prescription, int, error) {
	return r.list(ctx, func(p prescribing.Prescription) bool { return p.DoctorID == doctorID }, limit, offset)
}

func (r prescriptionRepo) list(ctx context.Context, match func(prescribing.Prescription) bool, limit, offset int) ([]*prescribing.Prescription, int, error) {
	var rows []prescribing.Prescription
	r.s.read(ctx, func(t *tables) {
		for _, p := range t.prescriptions {
			if match(p) {
				rows = append(rows, withOwnMedicines(p))
			}
		}
	})
	ordered(rows, func(p prescribing.Prescription) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID })

	out := make([]*prescribing.Prescription, 0, len(rows))
	for _, p := range page(rows, limit, offset) {
		p := p
		out = append(out, &p)
	}
	return out, len(rows), nil
}
