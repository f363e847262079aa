// AngelaMos | 2026
// dto.go

package prescription

import (
	"time"
)

type PatientInput struct {
	Name   string `json:"name"   validate:"required,min=1,max=200"`
	Phone  string `json:"phone"  validate:"max=30"`
	Age    int    `json:"age"    validate:"min=0,max=150"`
	Gender string `json:"gender" validate:"omitempty,oneof=male female other"`
}

type DoctorInput struct {
	Name               string `json:"name"                validate:"max=200"`
	RegistrationNumber string `json:"registration_number" validate:"max=100"`
}

type LineInput struct {
	MedicineID string  `json:"medicine_id" validate:"required,uuid"`
	Name       string  `json:"name"        validate:"required,max=200"`
	Quantity   int     `json:"quantity"    validate:"required,min=1"`
	UnitPrice  float64 `json:"unit_price"  validate:"min=0"`
	Discount   float64 `json:"discount"    validate:"min=0"`
}

type CreatePrescriptionRequest struct {
	Number   string      `json:"prescription_number" validate:"omitempty,max=50"`
	Patient  PatientInput `json:"patient"`
	Doctor   DoctorInput  `json:"doctor"`
	Lines    []LineInput  `json:"lines"               validate:"required,min=1,dive"`
	Discount float64      `json:"discount"            validate:"min=0"`
	Tax      *float64     `json:"tax,omitempty"       validate:"omitempty,min=0"`
	Notes    string       `json:"notes"               validate:"max=2000"`
}

type UpdatePrescriptionRequest struct {
	Patient  *PatientInput `json:"patient,omitempty"`
	Doctor   *DoctorInput  `json:"doctor,omitempty"`
	Lines    []LineInput   `json:"lines,omitempty"    validate:"omitempty,min=1,dive"`
	Discount *float64      `json:"discount,omitempty" validate:"omitempty,min=0"`
	Tax      *float64      `json:"tax,omitempty"      validate:"omitempty,min=0"`
	Notes    *string       `json:"notes,omitempty"    validate:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=pending partial dispensed cancelled returned"`
}

type ListPrescriptionsParams struct {
	Status Status
	Search string
	Limit  int
	Offset int
}

func (p *ListPrescriptionsParams) Normalize() {
	if p.Limit < 1 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

type PrescriptionResponse struct {
	ID          string     `json:"id"`
	Number      string     `json:"prescription_number"`
	Patient     Patient    `json:"patient"`
	Doctor      Doctor     `json:"doctor"`
	Lines       Lines      `json:"lines"`
	Totals      Totals     `json:"totals"`
	Status      Status     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	DispensedBy *string    `json:"dispensed_by,omitempty"`
	DispensedAt *time.Time `json:"dispensed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToPrescriptionResponse(p *Prescription) PrescriptionResponse {
	lines := p.Lines
	if lines == nil {
		lines = Lines{}
	}
	return PrescriptionResponse{
		ID:          p.ID,
		Number:      p.Number,
		Patient:     p.Patient,
		Doctor:      p.Doctor,
		Lines:       lines,
		Totals:      p.Totals(),
		Status:      p.Status,
		Notes:       p.Notes,
		DispensedBy: p.DispensedBy,
		DispensedAt: p.DispensedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToPrescriptionResponseList(ps []Prescription) []PrescriptionResponse {
	out := make([]PrescriptionResponse, 0, len(ps))
	for i := range ps {
		out = append(out, ToPrescriptionResponse(&ps[i]))
	}
	return out
}

func toLines(in []LineInput) Lines {
	out := make(Lines, 0, len(in))
	for _, l := range in {
		out = append(out, Line{
			MedicineID: l.MedicineID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Discount:   l.Discount,
		})
	}
	return out
}

func toPatient(in PatientInput) Patient {
	return Patient{Name: in.Name, Phone: in.Phone, Age: in.Age, Gender: in.Gender}
}

func toDoctor(in DoctorInput) Doctor {
	return Doctor{Name: in.Name, RegistrationNumber: in.RegistrationNumber}
}
