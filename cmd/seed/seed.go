package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/companies"
	"github.com/xelth-com/eckbiz/internal/services/employees"
	"github.com/xelth-com/eckbiz/internal/services/products"
	"github.com/xelth-com/eckbiz/internal/services/suppliers"
	"github.com/xelth-com/eckbiz/internal/services/users"
)

type seeder struct {
	base services.Base
	log  *zap.Logger
}

// admin creates the admin account unless a user with that email exists.
func (s seeder) admin(ctx context.Context, email, password string) error {
	var n int64
	if err := s.base.Conn(ctx).Model(&models.UserAuth{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("admin exists, skipping", zap.String("email", email))
		return nil
	}
	u, err := users.NewService(s.base).Create(ctx, users.CreateInput{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return err
	}
	s.log.Info("admin created", zap.String("id", u.ID), zap.String("email", u.Email))
	return nil
}

type demoProduct struct {
	sku, name, category string
	price, cost         string
	stock, reorder      int
}

var demoProducts = []demoProduct{
	{"DESK-001", "Standing desk", "furniture", "499.00", "310.00", 12, 5},
	{"CHAIR-001", "Ergonomic chair", "furniture", "289.00", "160.00", 30, 10},
	{"MON-027", "27\" monitor", "electronics", "239.90", "180.00", 4, 8},
	{"DOCK-USB", "USB-C dock", "electronics", "129.00", "74.50", 25, 10},
	{"SVC-HOUR", "Installation (hour)", "services", "75.00", "0", 0, 0},
}

// catalog creates demo master data. It does nothing once products exist.
func (s seeder) catalog(ctx context.Context) error {
	var n int64
	if err := s.base.Conn(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("catalog exists, skipping", zap.Int64("products", n))
		return nil
	}

	terms := 30
	sup, err := suppliers.NewService(s.base).Create(ctx, suppliers.CreateInput{
		Code: "SUP-OFFICE", Name: "Office Supply Co", Email: "orders@office-supply.example", PaymentTerms: &terms, Rating: 4,
	})
	if err != nil {
		return fmt.Errorf("supplier: %w", err)
	}

	prodSvc := products.NewService(s.base)
	for _, p := range demoProducts {
		_, err := prodSvc.Create(ctx, products.CreateInput{
			SKU:           p.sku,
			Name:          p.name,
			Category:      p.category,
			Unit:          "pcs",
			UnitPrice:     decimal.RequireFromString(p.price),
			CostPrice:     decimal.RequireFromString(p.cost),
			TaxRate:       decimal.NewFromInt(19),
			StockQuantity: p.stock,
			ReorderLevel:  p.reorder,
			SupplierID:    &sup.ID,
		})
		if err != nil {
			return fmt.Errorf("product %s: %w", p.sku, err)
		}
	}

	compSvc := companies.NewService(s.base)
	for _, c := range []companies.CreateInput{
		{Code: "ACME", Name: "Acme Corporation", Industry: "Manufacturing", Type: models.CompanyCustomer, CreditLimit: decimal.NewFromInt(50000)},
		{Code: "GLOBEX", Name: "Globex", Industry: "Retail", Type: models.CompanyProspect},
	} {
		if _, err := compSvc.Create(ctx, c); err != nil {
			return fmt.Errorf("company %s: %w", c.Code, err)
		}
	}

	empSvc := employees.NewService(s.base)
	lead, err := empSvc.Create(ctx, employees.CreateInput{
		FirstName: "Dana", LastName: "Lead", Email: "dana@example.com", Department: "Sales", Position: "Head of Sales",
	})
	if err != nil {
		return fmt.Errorf("employee: %w", err)
	}
	if _, err := empSvc.Create(ctx, employees.CreateInput{
		FirstName: "Sam", LastName: "Rep", Email: "sam@example.com", Department: "Sales", Position: "Account Executive", ManagerID: &lead.ID,
	}); err != nil {
		return fmt.Errorf("employee: %w", err)
	}

	s.log.Info("demo catalog created", zap.Int("products", len(demoProducts)))
	return nil
}
