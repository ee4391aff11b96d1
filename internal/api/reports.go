package api

import (
	"context"
	"net/url"
	"strconv"
)

// DashboardKPIs is the headline dashboard block.
type DashboardKPIs struct {
	AppointmentsToday int    `json:"citas_hoy"`
	AppointmentsWeek  int    `json:"citas_semana"`
	ActivePatients    int    `json:"pacientes_activos"`
	MonthlyIncome     string `json:"ingresos_mes"`
	PendingInvoices   int    `json:"facturas_pendientes"`
	LowStockSupplies  int    `json:"insumos_stock_bajo"`
}

// TrendPoint is one bucket in a time-series report.
type TrendPoint struct {
	Date  string `json:"fecha"`
	Count int    `json:"cantidad"`
}

// ProcedureCount ranks a procedure by frequency.
type ProcedureCount struct {
	Service string `json:"servicio"`
	Count   int    `json:"cantidad"`
	Income  string `json:"ingresos,omitempty"`
}

// FinancialReport aggregates income over a period.
type FinancialReport struct {
	Period   string `json:"periodo"`
	Income   string `json:"ingresos"`
	Expenses string `json:"egresos,omitempty"`
	Balance  string `json:"balance"`
}

// DentistOccupancy reports booked share per practitioner.
type DentistOccupancy struct {
	DentistID   int64   `json:"odontologo"`
	DentistName string  `json:"odontologo_nombre"`
	Occupancy   float64 `json:"ocupacion"` // 0..1
}

// GetDashboardKPIs returns the headline dashboard numbers.
func (c *Client) GetDashboardKPIs(ctx context.Context) (*DashboardKPIs, error) {
	var kpis DashboardKPIs
	if err := c.Get(ctx, "/api/reportes/reportes/dashboard-kpis/", &kpis); err != nil {
		return nil, err
	}
	return &kpis, nil
}

// GetAppointmentTrend returns daily appointment counts over the last days.
func (c *Client) GetAppointmentTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	path := "/api/reportes/reportes/tendencia-citas/"
	if days > 0 {
		path += "?dias=" + strconv.Itoa(days)
	}
	var points []TrendPoint
	if err := c.Get(ctx, path, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetTopProcedures returns the most frequent procedures.
func (c *Client) GetTopProcedures(ctx context.Context, limit int) ([]ProcedureCount, error) {
	path := "/api/reportes/reportes/top-procedimientos/"
	if limit > 0 {
		path += "?limite=" + strconv.Itoa(limit)
	}
	var procedures []ProcedureCount
	if err := c.Get(ctx, path, &procedures); err != nil {
		return nil, err
	}
	return procedures, nil
}

// GetFinancialReport aggregates income for a period ("mes", "trimestre") or
// an explicit date range.
func (c *Client) GetFinancialReport(ctx context.Context, period, from, to string) (*FinancialReport, error) {
	params := url.Values{}
	if period != "" {
		params.Set("periodo", period)
	}
	if from != "" {
		params.Set("fecha_inicio", from)
	}
	if to != "" {
		params.Set("fecha_fin", to)
	}
	path := "/api/reportes/reportes/reporte-financiero/"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var report FinancialReport
	if err := c.Get(ctx, path, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetDentistOccupancy reports booked share per practitioner for a month
// (YYYY-MM).
func (c *Client) GetDentistOccupancy(ctx context.Context, month string) ([]DentistOccupancy, error) {
	path := "/api/reportes/reportes/ocupacion-odontologos/"
	if month != "" {
		path += "?mes=" + url.QueryEscape(month)
	}
	var occupancy []DentistOccupancy
	if err := c.Get(ctx, path, &occupancy); err != nil {
		return nil, err
	}
	return occupancy, nil
}
