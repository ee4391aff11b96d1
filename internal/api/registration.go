package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Signup request states.
const (
	SignupPending   = "pendiente"
	SignupPaid      = "pagada"
	SignupApproved  = "aprobada"
	SignupRejected  = "rechazada"
	SignupProvision = "aprovisionando"
)

// Plan is a subscription tier offered to new clinics.
type Plan struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion,omitempty"`
	MonthlyPrice string `json:"precio_mensual"`
	MaxUsers     int    `json:"max_usuarios,omitempty"`
}

// SignupRequest asks for a new clinic tenant. Issued against the public
// schema, before any tenant exists.
type SignupRequest struct {
	ClinicName string `json:"nombre_clinica"`
	Subdomain  string `json:"subdominio"`
	PlanID     int64  `json:"plan"`
	AdminName  string `json:"nombre_admin"`
	AdminEmail string `json:"email_admin"`
	Phone      string `json:"telefono,omitempty"`
}

// SignupStatus tracks a signup request through payment and provisioning.
type SignupStatus struct {
	ID        int64  `json:"id"`
	Status    string `json:"estado"`
	Subdomain string `json:"subdominio"`
	PortalURL string `json:"url_portal,omitempty"`
}

// PaymentSession is the hosted checkout handoff for a signup request.
type PaymentSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// ListPlans returns the subscription tiers.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.Get(ctx, "/api/tenants/planes/", &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreateSignupRequest submits a new clinic application.
func (c *Client) CreateSignupRequest(ctx context.Context, req SignupRequest) (*SignupStatus, error) {
	var status SignupStatus
	if err := c.Post(ctx, "/api/tenants/solicitudes/", req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartSignupPayment opens a hosted checkout session for a signup request.
func (c *Client) StartSignupPayment(ctx context.Context, requestID int64) (*PaymentSession, error) {
	var session PaymentSession
	path := fmt.Sprintf("/api/tenants/solicitudes/%d/iniciar-pago/", requestID)
	if err := c.Post(ctx, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ConfirmSignupPayment confirms a completed checkout session.
func (c *Client) ConfirmSignupPayment(ctx context.Context, requestID int64, sessionID string) (*SignupStatus, error) {
	body := map[string]string{}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	var status SignupStatus
	path := fmt.Sprintf("/api/tenants/solicitudes/%d/confirmar-pago/", requestID)
	if err := c.Post(ctx, path, body, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSignupStatus polls a signup request.
func (c *Client) GetSignupStatus(ctx context.Context, requestID int64) (*SignupStatus, error) {
	var status SignupStatus
	path := fmt.Sprintf("/api/tenants/solicitudes/%d/estado/", requestID)
	if err := c.Get(ctx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DownloadCredentials fetches the provisioning credentials document for an
// approved signup. The one-time download token comes from the approval
// notification; the raw document bytes are returned as-is.
func (c *Client) DownloadCredentials(ctx context.Context, requestID int64, downloadToken string) ([]byte, error) {
	target := fmt.Sprintf("%s/api/tenants/solicitudes/%d/credenciales/?token=%s",
		c.resolver.APIBaseURL(), requestID, url.QueryEscape(downloadToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("api: create credentials request: %w", err)
	}
	req.Header.Set(TenantHeader, c.resolver.TenantID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: credentials request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read credentials: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("api: empty credentials document")
	}
	return body, nil
}
