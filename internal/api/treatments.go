package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Treatment plan states as issued by the backend.
const (
	PlanDraft      = "BORRADOR"
	PlanProposed   = "PROPUESTO"
	PlanAccepted   = "ACEPTADO"
	PlanInProgress = "EN_CURSO"
	PlanCompleted  = "COMPLETADO"
	PlanCancelled  = "CANCELADO"
)

// Budget states.
const (
	BudgetPending  = "PENDIENTE"
	BudgetAccepted = "ACEPTADO"
	BudgetRejected = "RECHAZADO"
	BudgetExpired  = "VENCIDO"
)

// ServiceCategory groups the clinic's service catalog.
type ServiceCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// Service is one catalog entry with its base price and estimated chair time.
type Service struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion,omitempty"`
	CategoryID   int64  `json:"categoria"`
	CategoryName string `json:"categoria_nombre,omitempty"`
	BasePrice    string `json:"precio_base"`
	Duration     int    `json:"duracion_estimada,omitempty"` // minutes
	Active       bool   `json:"activo"`
}

// TreatmentPlan is a proposed course of treatment for a patient.
type TreatmentPlan struct {
	ID          int64      `json:"id"`
	PatientID   int64      `json:"paciente"`
	PatientName string     `json:"paciente_nombre,omitempty"`
	DentistID   int64      `json:"odontologo"`
	DentistName string     `json:"odontologo_nombre,omitempty"`
	Title       string     `json:"titulo"`
	Description string     `json:"descripcion,omitempty"`
	StartsAt    string     `json:"fecha_inicio,omitempty"`
	EndsAt      string     `json:"fecha_fin,omitempty"`
	Status      string     `json:"estado"`
	Total       string     `json:"total"`
	Items       []PlanItem `json:"items,omitempty"`
}

// PlanItem is one service line within a treatment plan.
type PlanItem struct {
	ID          int64  `json:"id"`
	PlanID      int64  `json:"plan"`
	ServiceID   int64  `json:"servicio"`
	ServiceName string `json:"servicio_nombre,omitempty"`
	Price       string `json:"precio"`
	Quantity    int    `json:"cantidad"`
	Discount    string `json:"descuento,omitempty"`
	Subtotal    string `json:"subtotal,omitempty"`
	Status      string `json:"estado,omitempty"`
	Notes       string `json:"notas,omitempty"`
	Order       int    `json:"orden,omitempty"`
}

// Budget is the priced offer derived from a treatment plan, sent to the
// patient for acceptance.
type Budget struct {
	ID          int64  `json:"id"`
	PlanID      int64  `json:"plan"`
	PlanTitle   string `json:"plan_titulo,omitempty"`
	PatientID   int64  `json:"paciente"`
	PatientName string `json:"paciente_nombre,omitempty"`
	Total       string `json:"total"`
	Status      string `json:"estado"`
	IssuedAt    string `json:"fecha_emision"`
	ExpiresAt   string `json:"fecha_vencimiento,omitempty"`
	Notes       string `json:"notas,omitempty"`
}

// TreatmentFilters narrows service, plan, and budget listings.
type TreatmentFilters struct {
	Search     string
	CategoryID int64
	PatientID  int64
	Status     string
	Page       int
	PageSize   int
}

func (f TreatmentFilters) query() string {
	params := url.Values{}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.CategoryID != 0 {
		params.Set("categoria", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.PatientID != 0 {
		params.Set("paciente", strconv.FormatInt(f.PatientID, 10))
	}
	if f.Status != "" {
		params.Set("estado", f.Status)
	}
	if f.Page != 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize != 0 {
		params.Set("page_size", strconv.Itoa(f.PageSize))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// ListServiceCategories returns the service catalog categories.
func (c *Client) ListServiceCategories(ctx context.Context) ([]ServiceCategory, error) {
	var categories []ServiceCategory
	if err := c.Get(ctx, "/api/tratamientos/categorias/", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateServiceCategory adds a catalog category.
func (c *Client) CreateServiceCategory(ctx context.Context, category ServiceCategory) (*ServiceCategory, error) {
	var created ServiceCategory
	if err := c.Post(ctx, "/api/tratamientos/categorias/", category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateServiceCategory replaces a catalog category.
func (c *Client) UpdateServiceCategory(ctx context.Context, id int64, category ServiceCategory) (*ServiceCategory, error) {
	var updated ServiceCategory
	if err := c.Put(ctx, fmt.Sprintf("/api/tratamientos/categorias/%d/", id), category, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteServiceCategory removes a catalog category.
func (c *Client) DeleteServiceCategory(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/tratamientos/categorias/%d/", id))
}

// ListServices returns catalog services matching the filters.
func (c *Client) ListServices(ctx context.Context, filters TreatmentFilters) ([]Service, error) {
	var services []Service
	if err := c.Get(ctx, "/api/tratamientos/servicios/"+filters.query(), &services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetService returns one catalog service by id.
func (c *Client) GetService(ctx context.Context, id int64) (*Service, error) {
	var service Service
	if err := c.Get(ctx, fmt.Sprintf("/api/tratamientos/servicios/%d/", id), &service); err != nil {
		return nil, err
	}
	return &service, nil
}

// CreateService adds a catalog service.
func (c *Client) CreateService(ctx context.Context, service Service) (*Service, error) {
	var created Service
	if err := c.Post(ctx, "/api/tratamientos/servicios/", service, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateService replaces a catalog service.
func (c *Client) UpdateService(ctx context.Context, id int64, service Service) (*Service, error) {
	var updated Service
	if err := c.Put(ctx, fmt.Sprintf("/api/tratamientos/servicios/%d/", id), service, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteService removes a catalog service.
func (c *Client) DeleteService(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/tratamientos/servicios/%d/", id))
}

// ListTreatmentPlans returns treatment plans matching the filters.
func (c *Client) ListTreatmentPlans(ctx context.Context, filters TreatmentFilters) ([]TreatmentPlan, error) {
	var plans []TreatmentPlan
	if err := c.Get(ctx, "/api/tratamientos/planes/"+filters.query(), &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetTreatmentPlan returns one plan with its items.
func (c *Client) GetTreatmentPlan(ctx context.Context, id int64) (*TreatmentPlan, error) {
	var plan TreatmentPlan
	if err := c.Get(ctx, fmt.Sprintf("/api/tratamientos/planes/%d/", id), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateTreatmentPlan drafts a new plan.
func (c *Client) CreateTreatmentPlan(ctx context.Context, plan TreatmentPlan) (*TreatmentPlan, error) {
	var created TreatmentPlan
	if err := c.Post(ctx, "/api/tratamientos/planes/", plan, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTreatmentPlan replaces a plan. Status moves through the
// draft/proposed/accepted/in-progress lifecycle backend-side.
func (c *Client) UpdateTreatmentPlan(ctx context.Context, id int64, plan TreatmentPlan) (*TreatmentPlan, error) {
	var updated TreatmentPlan
	if err := c.Put(ctx, fmt.Sprintf("/api/tratamientos/planes/%d/", id), plan, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTreatmentPlan removes a plan.
func (c *Client) DeleteTreatmentPlan(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/tratamientos/planes/%d/", id))
}

// CreatePlanItem adds a service line to a plan.
func (c *Client) CreatePlanItem(ctx context.Context, item PlanItem) (*PlanItem, error) {
	var created PlanItem
	if err := c.Post(ctx, "/api/tratamientos/items/", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePlanItem replaces a service line.
func (c *Client) UpdatePlanItem(ctx context.Context, id int64, item PlanItem) (*PlanItem, error) {
	var updated PlanItem
	if err := c.Put(ctx, fmt.Sprintf("/api/tratamientos/items/%d/", id), item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePlanItem removes a service line.
func (c *Client) DeletePlanItem(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/tratamientos/items/%d/", id))
}

// ListBudgets returns budgets matching the filters.
func (c *Client) ListBudgets(ctx context.Context, filters TreatmentFilters) ([]Budget, error) {
	var budgets []Budget
	if err := c.Get(ctx, "/api/tratamientos/presupuestos/"+filters.query(), &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// GetBudget returns one budget by id.
func (c *Client) GetBudget(ctx context.Context, id int64) (*Budget, error) {
	var budget Budget
	if err := c.Get(ctx, fmt.Sprintf("/api/tratamientos/presupuestos/%d/", id), &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// CreateBudget issues a budget from a treatment plan.
func (c *Client) CreateBudget(ctx context.Context, budget Budget) (*Budget, error) {
	var created Budget
	if err := c.Post(ctx, "/api/tratamientos/presupuestos/", budget, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AcceptBudget accepts a budget with the acceptance token the patient
// received.
func (c *Client) AcceptBudget(ctx context.Context, id int64, acceptToken string) (*Budget, error) {
	var accepted Budget
	path := fmt.Sprintf("/api/tratamientos/presupuestos/%d/aceptar/%s/", id, url.PathEscape(acceptToken))
	if err := c.Post(ctx, path, nil, &accepted); err != nil {
		return nil, err
	}
	return &accepted, nil
}

// RejectBudget rejects a budget.
func (c *Client) RejectBudget(ctx context.Context, id int64) error {
	return c.Post(ctx, fmt.Sprintf("/api/tratamientos/presupuestos/%d/rechazar/", id), nil, nil)
}
