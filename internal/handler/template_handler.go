package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/middleware"
	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// TemplateHandler handles admin template CRUD endpoints.
type TemplateHandler struct {
	templates *service.TemplateService
}

// NewTemplateHandler constructs a TemplateHandler.
func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// shopIDParam extracts the required shopId query parameter that scopes every
// admin template operation.
func shopIDParam(c *gin.Context) (int, bool) {
	shopID, err := strconv.Atoi(c.Query("shopId"))
	if err != nil || shopID <= 0 {
		utils.Error(c, 400, "INVALID_SHOP_ID", "Missing or invalid shopId parameter")
		return 0, false
	}
	return shopID, true
}

// ListTemplates handles GET /v1/admin/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
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

	templates, total, err := h.templates.List(shopID, c.Query("search"), page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve templates")
		return
	}

	utils.SuccessWithPagination(c, 200, "Templates retrieved", templates, page, limit, total)
}

// GetTemplate handles GET /v1/admin/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid template ID")
		return
	}

	tpl, err := h.templates.Get(shopID, id)
	if err != nil {
		utils.Error(c, 404, "TEMPLATE_NOT_FOUND", "Template not found")
		return
	}

	utils.Success(c, 200, "Template retrieved", tpl)
}

// CreateTemplate handles POST /v1/admin/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}

	var tpl models.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.templates.Create(c.Request.Context(), shopID, &tpl)
	if err != nil {
		if errors.Is(err, utils.ErrTemplateInvalid) {
			utils.ErrorWithData(c, 422, "TEMPLATE_INVALID", "Template has validation errors", result)
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to create template")
		return
	}

	log.Info().Str("admin", middleware.AdminEmail(c)).Int("shop_id", shopID).Int("template_id", tpl.ID).Msg("Template created")
	utils.Success(c, 201, "Template created", gin.H{
		"template":   tpl,
		"validation": result,
	})
}

// UpdateTemplate handles PUT /v1/admin/templates/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid template ID")
		return
	}

	var tpl models.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.templates.Update(c.Request.Context(), shopID, id, &tpl)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTemplateNotFound):
			utils.Error(c, 404, "TEMPLATE_NOT_FOUND", "Template not found")
		case errors.Is(err, utils.ErrTemplateInvalid):
			utils.ErrorWithData(c, 422, "TEMPLATE_INVALID", "Template has validation errors", result)
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update template")
		}
		return
	}

	utils.Success(c, 200, "Template updated", gin.H{
		"template":   tpl,
		"validation": result,
	})
}

// DeleteTemplate handles DELETE /v1/admin/templates/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid template ID")
		return
	}

	if err := h.templates.Delete(c.Request.Context(), shopID, id); err != nil {
		if errors.Is(err, utils.ErrTemplateNotFound) {
			utils.Error(c, 404, "TEMPLATE_NOT_FOUND", "Template not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to delete template")
		return
	}

	log.Info().Str("admin", middleware.AdminEmail(c)).Int("shop_id", shopID).Int("template_id", id).Msg("Template deleted")
	utils.Success(c, 200, "Template deleted", nil)
}

// ValidateTemplate handles POST /v1/admin/templates/validate
// Dry-run validation for the editor; nothing is persisted.
func (h *TemplateHandler) ValidateTemplate(c *gin.Context) {
	var tpl models.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result := h.templates.Validate(&tpl)
	utils.Success(c, 200, "Template validated", result)
}

// DuplicateTemplate handles POST /v1/admin/templates/:id/duplicate
func (h *TemplateHandler) DuplicateTemplate(c *gin.Context) {
	shopID, ok := shopIDParam(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Invalid template ID")
		return
	}

	clone, err := h.templates.Duplicate(c.Request.Context(), shopID, id)
	if err != nil {
		if errors.Is(err, utils.ErrTemplateNotFound) {
			utils.Error(c, 404, "TEMPLATE_NOT_FOUND", "Template not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to duplicate template")
		return
	}

	utils.Success(c, 201, "Template duplicated", clone)
}
