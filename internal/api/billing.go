package api

import (
	"context"
	"fmt"
)

// Invoice states as issued by the backend.
const (
	InvoicePending = "pendiente"
	InvoicePaid    = "pagada"
	InvoicePartial = "parcial"
	InvoiceOverdue = "vencida"
	InvoiceVoided  = "anulada"
)

// Invoice is a billing document for a patient.
type Invoice struct {
	ID          int64  `json:"id"`
	PatientID   int64  `json:"paciente"`
	PatientName string `json:"paciente_nombre,omitempty"`
	IssuedAt    string `json:"fecha_emision"`
	Total       string `json:"total"`
	Paid        string `json:"pagado,omitempty"`
	Status      string `json:"estado"`
	Notes       string `json:"notas,omitempty"`
}

// Payment is a payment applied to an invoice.
type Payment struct {
	ID        int64  `json:"id"`
	InvoiceID int64  `json:"factura"`
	Amount    string `json:"monto"`
	Method    string `json:"metodo,omitempty"`
	PaidAt    string `json:"fecha_pago"`
}

// AccountStatement summarizes a patient's balance.
type AccountStatement struct {
	PatientID int64     `json:"paciente"`
	Balance   string    `json:"saldo"`
	Invoices  []Invoice `json:"facturas"`
}

// ListInvoices returns the clinic's invoices.
func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := c.Get(ctx, "/api/facturacion/facturas/", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoice returns one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var invoice Invoice
	if err := c.Get(ctx, fmt.Sprintf("/api/facturacion/facturas/%d/", id), &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// RecordPayment applies a payment to an invoice.
func (c *Client) RecordPayment(ctx context.Context, payment Payment) (*Payment, error) {
	var created Payment
	if err := c.Post(ctx, "/api/facturacion/pagos/", payment, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAccountStatement returns the balance summary for a patient.
func (c *Client) GetAccountStatement(ctx context.Context, patientID int64) (*AccountStatement, error) {
	var statement AccountStatement
	path := fmt.Sprintf("/api/facturacion/estado-cuenta/%d/", patientID)
	if err := c.Get(ctx, path, &statement); err != nil {
		return nil, err
	}
	return &statement, nil
}
