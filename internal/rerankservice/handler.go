package rerankservice

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
)

// rerankDocsetEntryDTO is the wire shape of one docset entry.
type rerankDocsetEntryDTO struct {
	CandidateID    string  `json:"candidateId" binding:"required"`
	RationaleInput string  `json:"rationaleInput" binding:"required"`
	HybridScore    float64 `json:"hybridScore"`
}

// rerankRequestDTO is the POST /rerank request body.
type rerankRequestDTO struct {
	JDText string                 `json:"jdText" binding:"required"`
	Docset []rerankDocsetEntryDTO `json:"docset" binding:"required,min=1"`
	Model  string                 `json:"model"`
}

// Handler exposes the Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires POST /rerank onto the given router group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/rerank", h.rerank)
}

func (h *Handler) rerank(c *gin.Context) {
	var dto rerankRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docset := make([]DocsetEntry, len(dto.Docset))
	for i, d := range dto.Docset {
		docset[i] = DocsetEntry{CandidateID: d.CandidateID, RationaleInput: d.RationaleInput, HybridScore: d.HybridScore}
	}

	result := h.svc.Rerank(c.Request.Context(), Request{
		TenantID: tenantmiddleware.FromContext(c).TenantID,
		JDText:   dto.JDText,
		Docset:   docset,
		Model:    dto.Model,
	})

	c.JSON(http.StatusOK, gin.H{
		"scored":        result.Scored,
		"rerankApplied": result.RerankApplied,
		"cacheHit":      result.CacheHit,
		"provider":      result.Provider,
	})
}
