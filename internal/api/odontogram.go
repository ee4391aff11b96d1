package api

import (
	"context"
	"fmt"
)

// ToothFace identifiers used by the dental chart.
const (
	FaceVestibular = "V"
	FaceLingual    = "L"
	FaceMesial     = "M"
	FaceDistal     = "D"
	FaceOcclusal   = "O"
)

// ToothRecord is the state of one tooth face on the chart.
type ToothRecord struct {
	Tooth     int    `json:"pieza"` // FDI notation, 11-48 / 51-85
	Face      string `json:"cara"`
	Condition string `json:"estado"`
	Notes     string `json:"notas,omitempty"`
}

// Odontogram is a dated dental chart snapshot inside a clinical history.
type Odontogram struct {
	ID        int64         `json:"id"`
	HistoryID int64         `json:"historial"`
	Date      string        `json:"fecha"`
	Kind      string        `json:"tipo,omitempty"` // adult or pediatric chart
	Teeth     []ToothRecord `json:"piezas"`
	Notes     string        `json:"observaciones,omitempty"`
}

func odontogramPath(historyID int64) string {
	return fmt.Sprintf("/api/historial-clinico/historiales/%d/odontograma/", historyID)
}

// ListOdontograms returns the chart snapshots of a clinical history, newest
// first.
func (c *Client) ListOdontograms(ctx context.Context, historyID int64) ([]Odontogram, error) {
	var odontograms []Odontogram
	if err := c.Get(ctx, odontogramPath(historyID), &odontograms); err != nil {
		return nil, err
	}
	return odontograms, nil
}

// GetOdontogram returns one chart snapshot.
func (c *Client) GetOdontogram(ctx context.Context, historyID, id int64) (*Odontogram, error) {
	var odontogram Odontogram
	path := fmt.Sprintf("%s%d/", odontogramPath(historyID), id)
	if err := c.Get(ctx, path, &odontogram); err != nil {
		return nil, err
	}
	return &odontogram, nil
}

// CreateOdontogram records a new chart snapshot.
func (c *Client) CreateOdontogram(ctx context.Context, historyID int64, odontogram Odontogram) (*Odontogram, error) {
	var created Odontogram
	if err := c.Post(ctx, odontogramPath(historyID), odontogram, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOdontogram replaces the tooth records of an existing snapshot.
func (c *Client) UpdateOdontogram(ctx context.Context, historyID, id int64, odontogram Odontogram) (*Odontogram, error) {
	var updated Odontogram
	path := fmt.Sprintf("%s%d/", odontogramPath(historyID), id)
	if err := c.Put(ctx, path, odontogram, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DuplicateOdontogram clones a snapshot as the starting point for a new
// treatment date.
func (c *Client) DuplicateOdontogram(ctx context.Context, historyID, id int64) (*Odontogram, error) {
	var duplicate Odontogram
	path := fmt.Sprintf("%s%d/duplicar/", odontogramPath(historyID), id)
	if err := c.Post(ctx, path, nil, &duplicate); err != nil {
		return nil, err
	}
	return &duplicate, nil
}

// DeleteOdontogram removes a chart snapshot.
func (c *Client) DeleteOdontogram(ctx context.Context, historyID, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("%s%d/", odontogramPath(historyID), id))
}
