package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/priceforge/priceforge_api/internal/middleware"
	"github.com/priceforge/priceforge_api/internal/pricing"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// CalculationHandler handles the storefront pricing endpoints and the admin
// calculation history.
type CalculationHandler struct {
	calculations *service.CalculationService
}

// NewCalculationHandler constructs a CalculationHandler.
func NewCalculationHandler(calculations *service.CalculationService) *CalculationHandler {
	return &CalculationHandler{calculations: calculations}
}

// productFromQuery reads the product context the widget passes on GET routes.
func productFromQuery(c *gin.Context) service.ProductContext {
	return service.ProductContext{
		ProductID:     c.Query("productId"),
		CollectionIDs: c.QueryArray("collectionId"),
		Vendor:        c.Query("vendor"),
		Tags:          c.QueryArray("tag"),
	}
}

// GetTemplate handles GET /v1/storefront/template
// Returns the template governing the product, resolved by scope precedence.
func (h *CalculationHandler) GetTemplate(c *gin.Context) {
	shop := middleware.GetShop(c)
	product := productFromQuery(c)

	tpl, err := h.calculations.ResolveTemplate(c.Request.Context(), shop.ID, product)
	if err != nil {
		if errors.Is(err, utils.ErrNoMatchingTemplate) {
			utils.Error(c, 404, "NO_MATCHING_TEMPLATE", "No active template covers this product")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to resolve template")
		return
	}

	utils.Success(c, 200, "Template resolved", gin.H{
		"template": tpl,
		"currency": shop.Currency,
	})
}

type activeFieldsRequest struct {
	Product service.ProductContext `json:"product"`
	Inputs  pricing.InputSet       `json:"inputs"`
}

// ActiveFields handles POST /v1/storefront/active-fields
func (h *CalculationHandler) ActiveFields(c *gin.Context) {
	shop := middleware.GetShop(c)

	var req activeFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	fields, tpl, err := h.calculations.ActiveFields(c.Request.Context(), shop.ID, req.Product, req.Inputs)
	if err != nil {
		if errors.Is(err, utils.ErrNoMatchingTemplate) {
			utils.Error(c, 404, "NO_MATCHING_TEMPLATE", "No active template covers this product")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute active fields")
		return
	}

	utils.Success(c, 200, "Active fields computed", gin.H{
		"templateId":   tpl.ID,
		"activeFields": fields,
	})
}

type calculateRequest struct {
	Product       service.ProductContext `json:"product"`
	Inputs        pricing.InputSet       `json:"inputs"`
	Quantity      int                    `json:"quantity" binding:"required"`
	Authoritative bool                   `json:"authoritative"`
}

// Calculate handles POST /v1/storefront/calculate
// Preview and cart-add share this endpoint; authoritative requests are the
// source of truth and get logged.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	shop := middleware.GetShop(c)

	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	breakdown, tpl, err := h.calculations.Calculate(
		c.Request.Context(), shop, req.Product, req.Inputs, req.Quantity, req.Authoritative)
	if err != nil {
		h.writeCalculationError(c, err)
		return
	}

	utils.Success(c, 200, "Price calculated", gin.H{
		"templateId": tpl.ID,
		"currency":   shop.Currency,
		"breakdown":  breakdown,
	})
}

// writeCalculationError maps pricing errors onto HTTP statuses: shopper-fixable
// problems are 422 with the offending field, template bugs are 500 so the
// widget falls back to "price unavailable".
func (h *CalculationHandler) writeCalculationError(c *gin.Context, err error) {
	var perr *pricing.Error
	if errors.As(err, &perr) {
		if perr.Recoverable() {
			utils.FieldError(c, 422, string(perr.Kind), perr.Field, perr.Message)
			return
		}
		utils.Error(c, 500, string(perr.Kind), "Template formula failed to evaluate")
		return
	}
	if errors.Is(err, utils.ErrNoMatchingTemplate) {
		utils.Error(c, 404, "NO_MATCHING_TEMPLATE", "No active template covers this product")
		return
	}
	utils.Error(c, 500, "INTERNAL_ERROR", "Failed to calculate price")
}

// ListCalculations handles GET /v1/admin/calculations
func (h *CalculationHandler) ListCalculations(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}

	page, limit := 1, 50
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	var templateID *int
	if v := c.Query("templateId"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			templateID = &id
		}
	}

	logs, total, err := h.calculations.ListLogs(shopID, templateID, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve calculations")
		return
	}

	utils.SuccessWithPagination(c, 200, "Calculations retrieved", logs, page, limit, total)
}
