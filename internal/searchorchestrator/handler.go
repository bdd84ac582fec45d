package searchorchestrator

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
	"github.com/delimatsuo/headhunter-sub008/internal/vectorstore"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/search/hybrid", h.search)
}

type searchRequestDTO struct {
	JDText     string   `json:"jdText" binding:"required"`
	CachePurge bool     `json:"cachePurge"`
	Locations  []string `json:"locations"`
	Seniority  []string `json:"seniority"`
}

func (h *Handler) search(c *gin.Context) {
	var dto searchRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), Request{
		TenantCtx:  tenantmiddleware.FromContext(c),
		JDText:     dto.JDText,
		CachePurge: dto.CachePurge,
		Filters:    vectorstore.Filters{Locations: dto.Locations, Seniority: dto.Seniority},
	})
	if err != nil {
		c.JSON(apperrors.Classify(err).HTTPStatus(), gin.H{"error": apperrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, resp)
}
