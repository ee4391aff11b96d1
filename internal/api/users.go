package api

import (
	"context"
	"fmt"
)

// User roles as issued by the backend.
const (
	RoleAdmin   = "ADMIN"
	RoleDentist = "ODONTOLOGO"
	RolePatient = "PACIENTE"
)

// User is the backend user profile. Field names follow the backend wire
// contract.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido,omitempty"`
	Role      string `json:"tipo_usuario"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
	Active    bool   `json:"is_active,omitempty"`
}

// FullName returns the display name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the login response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// RegisterRequest creates a new user account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Role      string `json:"tipo_usuario,omitempty"`
}

// ChangePasswordRequest rotates the current user's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login exchanges credentials for a token pair. It does not persist the
// tokens; the session manager owns that.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	var pair TokenPair
	if err := c.Post(ctx, "/api/token/", creds, &pair); err != nil {
		return nil, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return nil, fmt.Errorf("api: login response missing token pair")
	}
	return &pair, nil
}

// CurrentUser fetches the signed-in user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/api/usuarios/me/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateCurrentUser patches the signed-in user's profile and returns the
// updated record.
func (c *Client) UpdateCurrentUser(ctx context.Context, fields map[string]any) (*User, error) {
	var user User
	if err := c.Patch(ctx, "/api/usuarios/me/", fields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.Post(ctx, "/api/usuarios/register/", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the current user's password.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return c.Post(ctx, "/api/usuarios/change-password/", req, nil)
}

// ListDoctors returns the clinic's practitioners.
func (c *Client) ListDoctors(ctx context.Context) ([]User, error) {
	var doctors []User
	if err := c.Get(ctx, "/api/usuarios/doctores/", &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// ListPatients returns the clinic's patients.
func (c *Client) ListPatients(ctx context.Context) ([]User, error) {
	var patients []User
	if err := c.Get(ctx, "/api/usuarios/pacientes/", &patients); err != nil {
		return nil, err
	}
	return patients, nil
}
