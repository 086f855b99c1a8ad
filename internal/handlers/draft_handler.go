package handlers

import (
	"net/http"
	"strconv"

	"github.com/formsnap/signup-api/internal/models"
	"github.com/formsnap/signup-api/internal/services"
	"github.com/gin-gonic/gin"
)

// DraftHandler handles live draft form endpoints
type DraftHandler struct {
	service services.DraftServiceInterface
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(service services.DraftServiceInterface) *DraftHandler {
	return &DraftHandler{service: service}
}

// Create handles POST /api/v1/drafts
func (h *DraftHandler) Create(c *gin.Context) {
	c.JSON(http.StatusCreated, h.service.Create(c.Request.Context()))
}

// Get handles GET /api/v1/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Update handles PUT /api/v1/drafts/:id
func (h *DraftHandler) Update(c *gin.Context) {
	var req models.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AppendTech handles POST /api/v1/drafts/:id/techs
func (h *DraftHandler) AppendTech(c *gin.Context) {
	view, err := h.service.AppendTech(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetTech handles PUT /api/v1/drafts/:id/techs/:index
func (h *DraftHandler) SetTech(c *gin.Context) {
	index, ok := techIndex(c)
	if !ok {
		return
	}

	var req models.SetTechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := h.service.SetTech(c.Request.Context(), c.Param("id"), index, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveTech handles DELETE /api/v1/drafts/:id/techs/:index
func (h *DraftHandler) RemoveTech(c *gin.Context) {
	index, ok := techIndex(c)
	if !ok {
		return
	}

	view, err := h.service.RemoveTech(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Submit handles POST /api/v1/drafts/:id/submit
func (h *DraftHandler) Submit(c *gin.Context) {
	avatars, err := multipartAvatars(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), avatars)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func techIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid technology index", err)
		return 0, false
	}
	return index, true
}
