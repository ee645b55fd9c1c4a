package handler

import (
	"net/http"

	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryHandler serves spending categories. Default categories are
// readable by every user but never mutable; the ownership filter on
// mutations excludes them, so attempts come back 404.
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

func (h *CategoryHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var categories []models.Category
	if err := h.DB.Where("user_id = ? OR is_default = ?", user.ID, true).
		Order("name").
		Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid category id")
		return
	}

	var category models.Category
	if err := h.DB.Where("id = ? AND (user_id = ? OR is_default = ?)", id, user.ID, true).
		First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, category)
}

type createCategoryReq struct {
	Name         string  `json:"name" binding:"required"`
	CategoryType string  `json:"category_type" binding:"required"`
	Color        string  `json:"color" binding:"required"`
	Icon         *string `json:"icon"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := util.ValidateCategoryType(req.CategoryType); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := util.ValidateColor(req.Color); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	userID := user.ID
	category := models.Category{
		UserID:       &userID,
		Name:         req.Name,
		CategoryType: req.CategoryType,
		Color:        req.Color,
		Icon:         req.Icon,
		IsDefault:    false,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create category")
		return
	}

	c.JSON(http.StatusOK, category)
}

type updateCategoryReq struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid category id")
		return
	}

	var req updateCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Color != nil {
		if err := util.ValidateColor(*req.Color); err != nil {
			util.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	// Ownership first; defaults are excluded so they read as absent.
	var category models.Category
	err = h.DB.Where("id = ? AND user_id = ? AND is_default = ?", id, user.ID, false).
		First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Name != nil {
			if err := tx.Model(&models.Category{}).Where("id = ?", id).
				Update("name", *req.Name).Error; err != nil {
				return err
			}
		}
		if req.Color != nil {
			if err := tx.Model(&models.Category{}).Where("id = ?", id).
				Update("color", *req.Color).Error; err != nil {
				return err
			}
		}
		if req.Icon != nil {
			if err := tx.Model(&models.Category{}).Where("id = ?", id).
				Update("icon", *req.Icon).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update category")
		return
	}

	if err := h.DB.First(&category, "id = ?", id).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid category id")
		return
	}

	if err := h.DB.Where("id = ? AND user_id = ? AND is_default = ?", id, user.ID, false).
		Delete(&models.Category{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	c.Status(http.StatusNoContent)
}
