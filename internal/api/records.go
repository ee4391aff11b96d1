package api

import (
	"context"
	"fmt"
)

// ClinicalHistory is the top-level clinical record of a patient.
type ClinicalHistory struct {
	ID          int64  `json:"id"`
	PatientID   int64  `json:"paciente"`
	PatientName string `json:"paciente_nombre,omitempty"`
	Allergies   string `json:"alergias,omitempty"`
	Conditions  string `json:"antecedentes,omitempty"`
	Notes       string `json:"observaciones,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Episode is one clinical entry within a history.
type Episode struct {
	ID          int64  `json:"id"`
	HistoryID   int64  `json:"historial"`
	Date        string `json:"fecha"`
	Description string `json:"descripcion"`
	Diagnosis   string `json:"diagnostico,omitempty"`
	Treatment   string `json:"tratamiento,omitempty"`
	DentistName string `json:"odontologo_nombre,omitempty"`
}

// ListClinicalHistories returns the clinic's histories. Patients only see
// their own; scoping is enforced backend-side.
func (c *Client) ListClinicalHistories(ctx context.Context) ([]ClinicalHistory, error) {
	var histories []ClinicalHistory
	if err := c.Get(ctx, "/api/historial-clinico/historiales/", &histories); err != nil {
		return nil, err
	}
	return histories, nil
}

// GetClinicalHistory returns one history by id.
func (c *Client) GetClinicalHistory(ctx context.Context, id int64) (*ClinicalHistory, error) {
	var history ClinicalHistory
	if err := c.Get(ctx, fmt.Sprintf("/api/historial-clinico/historiales/%d/", id), &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ListEpisodes returns the episodes of a history.
func (c *Client) ListEpisodes(ctx context.Context, historyID int64) ([]Episode, error) {
	var episodes []Episode
	path := fmt.Sprintf("/api/historial-clinico/episodios/?historial=%d", historyID)
	if err := c.Get(ctx, path, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// CreateEpisode appends a clinical entry to a history.
func (c *Client) CreateEpisode(ctx context.Context, episode Episode) (*Episode, error) {
	var created Episode
	if err := c.Post(ctx, "/api/historial-clinico/episodios/", episode, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
