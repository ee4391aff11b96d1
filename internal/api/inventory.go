package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Category groups inventory supplies.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// Supply is one inventory item.
type Supply struct {
	ID         int64  `json:"id"`
	Name       string `json:"nombre"`
	CategoryID int64  `json:"categoria"`
	Unit       string `json:"unidad,omitempty"`
	Stock      int    `json:"stock"`
	MinStock   int    `json:"stock_minimo"`
	UnitPrice  string `json:"precio_unitario,omitempty"`
	Active     bool   `json:"activo"`
}

// SupplyFilters narrows a supply listing.
type SupplyFilters struct {
	Search     string
	CategoryID int64
	Active     *bool
	Ordering   string
}

func (f SupplyFilters) query() string {
	params := url.Values{}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.CategoryID != 0 {
		params.Set("categoria", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Active != nil {
		params.Set("activo", strconv.FormatBool(*f.Active))
	}
	if f.Ordering != "" {
		params.Set("ordering", f.Ordering)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// StockAdjustment is a manual stock correction. Quantity is signed: negative
// consumes stock, positive restocks.
type StockAdjustment struct {
	Quantity int    `json:"cantidad"`
	Reason   string `json:"motivo"`
}

// StockAdjustmentResult reports the stock level after an adjustment.
type StockAdjustmentResult struct {
	SupplyID int64 `json:"insumo"`
	Stock    int   `json:"stock"`
	LowStock bool  `json:"stock_bajo"`
}

// ListCategories returns the inventory categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.Get(ctx, "/api/inventario/categorias/", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds an inventory category.
func (c *Client) CreateCategory(ctx context.Context, category Category) (*Category, error) {
	var created Category
	if err := c.Post(ctx, "/api/inventario/categorias/", category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/inventario/categorias/%d/", id))
}

// ListSupplies returns supplies matching the filters.
func (c *Client) ListSupplies(ctx context.Context, filters SupplyFilters) ([]Supply, error) {
	var supplies []Supply
	if err := c.Get(ctx, "/api/inventario/insumos/"+filters.query(), &supplies); err != nil {
		return nil, err
	}
	return supplies, nil
}

// GetSupply returns one supply by id.
func (c *Client) GetSupply(ctx context.Context, id int64) (*Supply, error) {
	var supply Supply
	if err := c.Get(ctx, fmt.Sprintf("/api/inventario/insumos/%d/", id), &supply); err != nil {
		return nil, err
	}
	return &supply, nil
}

// CreateSupply adds a supply.
func (c *Client) CreateSupply(ctx context.Context, supply Supply) (*Supply, error) {
	var created Supply
	if err := c.Post(ctx, "/api/inventario/insumos/", supply, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSupply patches a supply.
func (c *Client) UpdateSupply(ctx context.Context, id int64, fields map[string]any) (*Supply, error) {
	var updated Supply
	if err := c.Patch(ctx, fmt.Sprintf("/api/inventario/insumos/%d/", id), fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSupply removes a supply.
func (c *Client) DeleteSupply(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/inventario/insumos/%d/", id))
}

// AdjustStock applies a signed stock correction to a supply.
func (c *Client) AdjustStock(ctx context.Context, id int64, adjustment StockAdjustment) (*StockAdjustmentResult, error) {
	var result StockAdjustmentResult
	path := fmt.Sprintf("/api/inventario/insumos/%d/ajustar-stock/", id)
	if err := c.Post(ctx, path, adjustment, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListLowStock returns supplies at or below their minimum stock level.
func (c *Client) ListLowStock(ctx context.Context) ([]Supply, error) {
	var supplies []Supply
	if err := c.Get(ctx, "/api/inventario/insumos/stock-bajo/", &supplies); err != nil {
		return nil, err
	}
	return supplies, nil
}
