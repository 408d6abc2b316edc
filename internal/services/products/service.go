package products

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "product"

const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"sku":           "sku",
		"name":          "name",
		"category":      "category",
		"unitPrice":     "unit_price",
		"stockQuantity": "stock_quantity",
		"createdAt":     "created_at",
	},
	Default: "name ASC",
}

var movementSort = query.Sort{Default: "created_at DESC, id DESC"}

var hundred = decimal.NewFromInt(100)

// Service handles the product catalog and stock levels
type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	SKU           string          `json:"sku" validate:"required,max=64"`
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description"`
	Category      string          `json:"category" validate:"max=100"`
	Unit          string          `json:"unit" validate:"max=16"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	StockQuantity int             `json:"stockQuantity" validate:"min=0"`
	ReorderLevel  int             `json:"reorderLevel" validate:"min=0"`
	SupplierID    *uint           `json:"supplierId"`
	IsActive      *bool           `json:"isActive"`
}

// UpdateInput changes catalog fields. Stock only moves through AdjustStock.
type UpdateInput struct {
	SKU          *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category" validate:"omitempty,max=100"`
	Unit         *string          `json:"unit" validate:"omitempty,max=16"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	CostPrice    *decimal.Decimal `json:"costPrice"`
	TaxRate      *decimal.Decimal `json:"taxRate"`
	ReorderLevel *int             `json:"reorderLevel" validate:"omitempty,min=0"`
	SupplierID   *uint            `json:"supplierId"`
	IsActive     *bool            `json:"isActive"`
}

type Filter struct {
	SearchText string
	Category   string
	SupplierID *uint
	IsActive   *bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	LowStock   bool
}

// StockInput is the body of POST /products/{id}/stock.
type StockInput struct {
	Quantity  int    `json:"quantity" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=50"`
	Reference string `json:"reference" validate:"max=100"`
	UserID    string `json:"-"`
}

// BulkPriceInput adjusts unit prices of several products at once. Exactly
// one of Percent and Amount is used.
type BulkPriceInput struct {
	IDs     []uint           `json:"ids" validate:"required,min=1"`
	Percent *decimal.Decimal `json:"percent"`
	Amount  *decimal.Decimal `json:"amount"`
}

func checkPrices(unit, cost, tax *decimal.Decimal) error {
	if unit != nil && unit.IsNegative() {
		return apperr.Validation("unit price must not be negative")
	}
	if cost != nil && cost.IsNegative() {
		return apperr.Validation("cost price must not be negative")
	}
	if tax != nil && (tax.IsNegative() || tax.GreaterThan(hundred)) {
		return apperr.Validation("tax rate must be between 0 and 100")
	}
	return nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Product], error) {
	q := query.NewFilter().
		Search(f.SearchText, "name", "sku", "description").
		Eq("category", f.Category).
		Eq("supplier_id", f.SupplierID).
		Eq("is_active", f.IsActive).
		Range("unit_price", f.MinPrice, f.MaxPrice)
	if f.LowStock {
		q.Where("stock_quantity <= reorder_level")
	}
	return query.List[models.Product](s.Conn(ctx), q, p, sortColumns)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	return services.Find[models.Product](s.Conn(ctx), entity, id, "Supplier")
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	if err := checkPrices(&in.UnitPrice, &in.CostPrice, &in.TaxRate); err != nil {
		return nil, err
	}
	db := s.Conn(ctx)
	if in.SupplierID != nil {
		if err := services.MustExist[models.Supplier](db, "supplier", *in.SupplierID); err != nil {
			return nil, err
		}
	}
	p := &models.Product{
		SKU:           in.SKU,
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		Unit:          in.Unit,
		UnitPrice:     in.UnitPrice,
		CostPrice:     in.CostPrice,
		TaxRate:       in.TaxRate,
		StockQuantity: in.StockQuantity,
		ReorderLevel:  in.ReorderLevel,
		SupplierID:    in.SupplierID,
		IsActive:      true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.Unit == "" {
		p.Unit = "pcs"
	}
	if err := db.Create(p).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Validation("product sku already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Product, error) {
	if err := checkPrices(in.UnitPrice, in.CostPrice, in.TaxRate); err != nil {
		return nil, err
	}
	db := s.Conn(ctx)
	if in.SupplierID != nil {
		if err := services.MustExist[models.Supplier](db, "supplier", *in.SupplierID); err != nil {
			return nil, err
		}
	}
	p := query.Patch{}
	query.Set(p, "sku", in.SKU)
	query.Set(p, "name", in.Name)
	query.Set(p, "description", in.Description)
	query.Set(p, "category", in.Category)
	query.Set(p, "unit", in.Unit)
	query.Set(p, "unit_price", in.UnitPrice)
	query.Set(p, "cost_price", in.CostPrice)
	query.Set(p, "tax_rate", in.TaxRate)
	query.Set(p, "reorder_level", in.ReorderLevel)
	query.Set(p, "supplier_id", in.SupplierID)
	query.Set(p, "is_active", in.IsActive)

	prod, err := services.Update[models.Product](db, entity, id, p)
	if apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Validation("product sku already exists")
	}
	return prod, err
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Product](s.Conn(ctx), entity, id)
}

// AdjustStock moves stock by in.Quantity under a row lock and records the
// movement. The resulting stock may not go below zero.
func (s *Service) AdjustStock(ctx context.Context, id uint, in StockInput) (*models.StockMovement, error) {
	if in.Quantity == 0 {
		return nil, apperr.Validation("quantity must not be zero")
	}
	var mv *models.StockMovement
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		p, err := services.FindForUpdate[models.Product](tx, entity, id)
		if err != nil {
			return err
		}
		balance := p.StockQuantity + in.Quantity
		if balance < 0 {
			return apperr.Validation("insufficient stock: %d available, %d requested", p.StockQuantity, -in.Quantity).
				WithDetail("available", p.StockQuantity)
		}
		if err := tx.Model(p).Update("stock_quantity", balance).Error; err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		mv = &models.StockMovement{
			ProductID:    p.ID,
			Quantity:     in.Quantity,
			BalanceAfter: balance,
			Reason:       in.Reason,
			Reference:    in.Reference,
			UserID:       in.UserID,
			CreatedAt:    s.Now(),
		}
		if err := tx.Create(mv).Error; err != nil {
			return fmt.Errorf("record movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// Movements lists the stock history of a product, newest first.
func (s *Service) Movements(ctx context.Context, id uint, p query.PageRequest) (query.Page[models.StockMovement], error) {
	db := s.Conn(ctx)
	if err := services.MustExist[models.Product](db, entity, id); err != nil {
		return query.Page[models.StockMovement]{}, err
	}
	return query.List[models.StockMovement](db, query.NewFilter().Eq("product_id", id), p, movementSort)
}

// BulkPrice reprices every product in in.IDs in one transaction. A missing
// id or a resulting negative price aborts the whole batch.
func (s *Service) BulkPrice(ctx context.Context, in BulkPriceInput) ([]models.Product, error) {
	if (in.Percent == nil) == (in.Amount == nil) {
		return nil, apperr.Validation("exactly one of percent or amount is required")
	}
	if in.Percent != nil && in.Percent.LessThanOrEqual(hundred.Neg()) {
		return nil, apperr.Validation("percent must be greater than -100")
	}
	ids := dedupe(in.IDs)

	var out []models.Product
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Order("id").Find(&out).Error; err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		if len(out) != len(ids) {
			return apperr.NotFound(entity, missing(ids, out))
		}
		for i := range out {
			price := out[i].UnitPrice
			if in.Percent != nil {
				price = price.Add(price.Mul(*in.Percent).Div(hundred))
			} else {
				price = price.Add(*in.Amount)
			}
			price = price.Round(2)
			if price.IsNegative() {
				return apperr.Validation("price of %s would become negative", out[i].SKU)
			}
			if err := tx.Model(&out[i]).Update("unit_price", price).Error; err != nil {
				return fmt.Errorf("update price: %w", err)
			}
			out[i].UnitPrice = price
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missing(ids []uint, found []models.Product) []uint {
	have := make(map[uint]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var out []uint
	for _, id := range ids {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}

// Stats summarizes the catalog.
type Stats struct {
	Total      int64            `json:"total"`
	Active     int64            `json:"active"`
	LowStock   int64            `json:"lowStock"`
	StockValue decimal.Decimal  `json:"stockValue"`
	ByCategory []services.Count `json:"byCategory"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{}
	if err := db.Model(&models.Product{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := db.Model(&models.Product{}).Where("is_active = ?", true).Count(&out.Active).Error; err != nil {
		return nil, fmt.Errorf("count active products: %w", err)
	}
	var err error
	if out.LowStock, err = LowStockCount(db); err != nil {
		return nil, err
	}

	var rows []models.Product
	if err := db.Select("stock_quantity", "cost_price").Where("stock_quantity > 0").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("stock value: %w", err)
	}
	for _, r := range rows {
		out.StockValue = out.StockValue.Add(r.CostPrice.Mul(decimal.NewFromInt(int64(r.StockQuantity))))
	}
	if out.ByCategory, err = services.CountBy[models.Product](db, "category"); err != nil {
		return nil, err
	}
	return out, nil
}

// LowStockCount counts active products at or below their reorder level.
func LowStockCount(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= reorder_level", true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count low stock: %w", err)
	}
	return n, nil
}
