package embedservice

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/delimatsuo/headhunter-sub008/internal/apperrors"
	"github.com/delimatsuo/headhunter-sub008/internal/models"
	"github.com/delimatsuo/headhunter-sub008/internal/tenantmiddleware"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/embed/upsert", h.upsert)
	group.POST("/embed/query", h.query)
}

type skillDTO struct {
	Name       string   `json:"name" binding:"required"`
	Confidence *float64 `json:"confidence"`
}

type titleTransitionDTO struct {
	Title     string  `json:"title"`
	StartedAt string  `json:"startedAt"`
	EndedAt   *string `json:"endedAt"`
}

type upsertRequestDTO struct {
	EntityID  string                 `json:"entityId" binding:"required"`
	ChunkType string                 `json:"chunkType"`
	Metadata  map[string]interface{} `json:"metadata"`

	Identifier      string     `json:"identifier"`
	DisplayName     string     `json:"displayName"`
	CurrentTitle    string     `json:"currentTitle"`
	CurrentCompany  string     `json:"currentCompany"`
	Summary         string     `json:"summary"`
	Skills          []skillDTO `json:"skills"`
	ExperienceYears float64    `json:"experienceYears"`
	SeniorityLevel  string     `json:"seniorityLevel"`
	Companies       []string   `json:"companies"`
	Domains         []string   `json:"domains"`
	Keywords        []string   `json:"keywords"`
}

func (h *Handler) upsert(c *gin.Context) {
	var dto upsertRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	skills := make([]models.SkillMention, len(dto.Skills))
	for i, s := range dto.Skills {
		skills[i] = models.SkillMention{Name: s.Name, Confidence: s.Confidence}
	}

	profile := models.CandidateProfile{
		Identifier:      dto.EntityID,
		DisplayName:     dto.DisplayName,
		CurrentTitle:    dto.CurrentTitle,
		CurrentCompany:  dto.CurrentCompany,
		Summary:         dto.Summary,
		Skills:          skills,
		ExperienceYears: dto.ExperienceYears,
		SeniorityLevel:  dto.SeniorityLevel,
		Companies:       dto.Companies,
		Domains:         dto.Domains,
		Keywords:        dto.Keywords,
	}

	result, err := h.svc.Upsert(c.Request.Context(), UpsertRequest{
		TenantID:  tenantmiddleware.FromContext(c).TenantID,
		EntityID:  dto.EntityID,
		ChunkType: dto.ChunkType,
		Profile:   profile,
		Metadata:  dto.Metadata,
	})
	if err != nil {
		c.JSON(apperrors.Classify(err).HTTPStatus(), gin.H{"error": apperrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entityId":     result.EntityID,
		"modelVersion": result.ModelVersion,
		"provider":     result.Provider,
		"dim":          result.Dimensions,
		"skipped":      result.Skipped,
	})
}

type queryRequestDTO struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) query(c *gin.Context) {
	var dto queryRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.EmbedQuery(c.Request.Context(), tenantmiddleware.FromContext(c).TenantID, dto.Text)
	if err != nil {
		c.JSON(apperrors.Classify(err).HTTPStatus(), gin.H{"error": apperrors.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vector":       result.Vector,
		"provider":     result.Provider,
		"modelVersion": result.ModelVersion,
	})
}
