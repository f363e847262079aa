// AngelaMos | 2026
// dto.go

package medicine

import (
	"time"
)

type StockInput struct {
	Current  int `json:"current"  validate:"min=0"`
	Minimum  int `json:"minimum"  validate:"min=0"`
	Maximum  int `json:"maximum"  validate:"min=0"`
	Reserved int `json:"reserved" validate:"min=0"`
}

type PricingInput struct {
	CostPrice    float64 `json:"cost_price"    validate:"min=0"`
	SellingPrice float64 `json:"selling_price" validate:"min=0"`
	MRP          float64 `json:"mrp"           validate:"min=0"`
}

type DatesInput struct {
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate      time.Time  `json:"expiry_date"                validate:"required"`
}

type CreateMedicineRequest struct {
	Name                 string       `json:"name"                  validate:"required,min=1,max=200"`
	GenericName          string       `json:"generic_name"          validate:"max=200"`
	Manufacturer         string       `json:"manufacturer"          validate:"max=200"`
	Category             string       `json:"category"              validate:"max=100"`
	SKU                  string       `json:"sku"                   validate:"max=100"`
	BatchNumber          string       `json:"batch_number"          validate:"max=100"`
	Description          string       `json:"description"           validate:"max=2000"`
	RequiresPrescription bool         `json:"requires_prescription"`
	Stock                StockInput   `json:"stock"`
	Pricing              PricingInput `json:"pricing"`
	Dates                DatesInput   `json:"dates"`
}

type StockPatch struct {
	Current  *int `json:"current,omitempty"  validate:"omitempty,min=0"`
	Minimum  *int `json:"minimum,omitempty"  validate:"omitempty,min=0"`
	Maximum  *int `json:"maximum,omitempty"  validate:"omitempty,min=0"`
	Reserved *int `json:"reserved,omitempty" validate:"omitempty,min=0"`
}

type PricingPatch struct {
	CostPrice    *float64 `json:"cost_price,omitempty"    validate:"omitempty,min=0"`
	SellingPrice *float64 `json:"selling_price,omitempty" validate:"omitempty,min=0"`
	MRP          *float64 `json:"mrp,omitempty"           validate:"omitempty,min=0"`
}

type DatesPatch struct {
	ManufactureDate *time.Time `json:"manufacture_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

type UpdateMedicineRequest struct {
	Name                 *string       `json:"name,omitempty"                  validate:"omitempty,min=1,max=200"`
	GenericName          *string       `json:"generic_name,omitempty"          validate:"omitempty,max=200"`
	Manufacturer         *string       `json:"manufacturer,omitempty"          validate:"omitempty,max=200"`
	Category             *string       `json:"category,omitempty"              validate:"omitempty,max=100"`
	SKU                  *string       `json:"sku,omitempty"                   validate:"omitempty,max=100"`
	BatchNumber          *string       `json:"batch_number,omitempty"          validate:"omitempty,max=100"`
	Description          *string       `json:"description,omitempty"           validate:"omitempty,max=2000"`
	RequiresPrescription *bool         `json:"requires_prescription,omitempty"`
	Stock                *StockPatch   `json:"stock,omitempty"`
	Pricing              *PricingPatch `json:"pricing,omitempty"`
	Dates                *DatesPatch   `json:"dates,omitempty"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required,ne=0"`
	Reason string `json:"reason" validate:"required,max=200"`
}

type ListMedicinesParams struct {
	Category string
	Search   string
	LowStock bool
	Expiring bool
	Limit    int
	Offset   int

	// set by the service from Expiring
	expiringAfter  time.Time
	expiringBefore time.Time
}

func (p *ListMedicinesParams) Normalize() {
	if p.Limit < 1 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

type StockResponse struct {
	Current   int         `json:"current"`
	Minimum   int         `json:"minimum"`
	Maximum   int         `json:"maximum"`
	Reserved  int         `json:"reserved"`
	Available int         `json:"available"`
	Status    StockStatus `json:"status"`
}

type PricingResponse struct {
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	MRP          float64 `json:"mrp"`
}

type DatesResponse struct {
	ManufactureDate *time.Time   `json:"manufacture_date,omitempty"`
	ExpiryDate      time.Time    `json:"expiry_date"`
	ExpiryStatus    ExpiryStatus `json:"expiry_status"`
	DaysToExpiry    int          `json:"days_to_expiry"`
}

type MedicineResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	GenericName          string          `json:"generic_name,omitempty"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	Category             string          `json:"category,omitempty"`
	SKU                  string          `json:"sku,omitempty"`
	BatchNumber          string          `json:"batch_number,omitempty"`
	Description          string          `json:"description,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
	Stock                StockResponse   `json:"stock"`
	Pricing              PricingResponse `json:"pricing"`
	Dates                DatesResponse   `json:"dates"`
	Status               string          `json:"status"`
	LastUpdated          time.Time       `json:"last_updated"`
	CreatedAt            time.Time       `json:"created_at"`
}

func ToMedicineResponse(m *Medicine, now time.Time, w ExpiryWindows) MedicineResponse {
	return MedicineResponse{
		ID:                   m.ID,
		Name:                 m.Name,
		GenericName:          m.GenericName,
		Manufacturer:         m.Manufacturer,
		Category:             m.Category,
		SKU:                  m.SKU,
		BatchNumber:          m.BatchNumber,
		Description:          m.Description,
		RequiresPrescription: m.RequiresPrescription,
		Stock: StockResponse{
			Current:   m.StockCurrent,
			Minimum:   m.StockMinimum,
			Maximum:   m.StockMaximum,
			Reserved:  m.StockReserved,
			Available: m.Available(),
			Status:    m.StockStatus(),
		},
		Pricing: PricingResponse{
			CostPrice:    m.CostPrice,
			SellingPrice: m.SellingPrice,
			MRP:          m.MRP,
		},
		Dates: DatesResponse{
			ManufactureDate: m.ManufactureDate,
			ExpiryDate:      m.ExpiryDate,
			ExpiryStatus:    m.ExpiryStatus(now, w),
			DaysToExpiry:    m.DaysToExpiry(now),
		},
		Status:      string(m.Status),
		LastUpdated: m.LastUpdated,
		CreatedAt:   m.CreatedAt,
	}
}

func ToMedicineResponseList(meds []Medicine, now time.Time, w ExpiryWindows) []MedicineResponse {
	out := make([]MedicineResponse, 0, len(meds))
	for i := range meds {
		out = append(out, ToMedicineResponse(&meds[i], now, w))
	}
	return out
}
