package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Appointment states as issued by the backend.
const (
	AppointmentPending   = "PENDIENTE"
	AppointmentConfirmed = "CONFIRMADA"
	AppointmentCompleted = "COMPLETADA"
	AppointmentCancelled = "CANCELADA"
	AppointmentAttended  = "ATENDIDA"
)

// Appointment is a scheduled visit.
type Appointment struct {
	ID           int64  `json:"id"`
	PatientID    int64  `json:"paciente"`
	PatientEmail string `json:"paciente_email,omitempty"`
	PatientName  string `json:"paciente_nombre,omitempty"`
	DentistName  string `json:"odontologo_nombre,omitempty"`
	StartsAt     string `json:"fecha_hora"` // RFC 3339
	Duration     int    `json:"duracion,omitempty"`
	Reason       string `json:"motivo"`
	Status       string `json:"estado"`
	Notes        string `json:"notas,omitempty"`
	ServiceID    *int64 `json:"servicio,omitempty"`
	PlanItemID   *int64 `json:"item_plan,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// AppointmentFilters narrows an appointment listing.
type AppointmentFilters struct {
	From      string // YYYY-MM-DD
	To        string // YYYY-MM-DD
	Status    string
	PatientID int64
}

func (f AppointmentFilters) query() string {
	params := url.Values{}
	if f.From != "" {
		params.Set("fecha_inicio", f.From)
	}
	if f.To != "" {
		params.Set("fecha_fin", f.To)
	}
	if f.Status != "" {
		params.Set("estado", f.Status)
	}
	if f.PatientID != 0 {
		params.Set("paciente", strconv.FormatInt(f.PatientID, 10))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// CreateAppointmentRequest books a new visit for a patient.
type CreateAppointmentRequest struct {
	PatientID  int64  `json:"paciente"`
	StartsAt   string `json:"fecha_hora"`
	Duration   int    `json:"duracion,omitempty"`
	Reason     string `json:"motivo"`
	Notes      string `json:"notas,omitempty"`
	ServiceID  *int64 `json:"servicio,omitempty"`
	PlanItemID *int64 `json:"item_plan,omitempty"`
}

// AvailabilitySlot is one bookable slot returned by the availability lookup.
type AvailabilitySlot struct {
	Time      string `json:"hora"`
	Available bool   `json:"disponible"`
	DentistID int64  `json:"odontologo,omitempty"`
}

// ListAppointments returns appointments matching the filters.
func (c *Client) ListAppointments(ctx context.Context, filters AppointmentFilters) ([]Appointment, error) {
	var appointments []Appointment
	if err := c.Get(ctx, "/api/agenda/citas/"+filters.query(), &appointments); err != nil {
		return nil, err
	}
	return appointments, nil
}

// GetAppointment returns one appointment by id.
func (c *Client) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	var appointment Appointment
	if err := c.Get(ctx, fmt.Sprintf("/api/agenda/citas/%d/", id), &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// CreateAppointment books a new visit.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	var appointment Appointment
	if err := c.Post(ctx, "/api/agenda/citas/", req, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// UpdateAppointment patches status and notes on an existing appointment.
func (c *Client) UpdateAppointment(ctx context.Context, id int64, status, notes string) (*Appointment, error) {
	body := map[string]string{}
	if status != "" {
		body["estado"] = status
	}
	if notes != "" {
		body["notas"] = notes
	}
	var appointment Appointment
	if err := c.Patch(ctx, fmt.Sprintf("/api/agenda/citas/%d/", id), body, &appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// DeleteAppointment removes an appointment.
func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/agenda/citas/%d/", id))
}

// GetAvailability returns bookable slots for a date, optionally scoped to a
// practitioner.
func (c *Client) GetAvailability(ctx context.Context, date string, dentistID int64) ([]AvailabilitySlot, error) {
	params := url.Values{}
	params.Set("fecha", date)
	if dentistID != 0 {
		params.Set("odontologo", strconv.FormatInt(dentistID, 10))
	}
	var slots []AvailabilitySlot
	if err := c.Get(ctx, "/api/agenda/disponibilidad/?"+params.Encode(), &slots); err != nil {
		return nil, err
	}
	return slots, nil
}
