package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"quizflow-service/internal/app"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// Handler exposes FlowService over REST.
type Handler struct {
	service *app.FlowService
}

func NewHandler(service *app.FlowService) *Handler {
	return &Handler{service: service}
}

type createVersionRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"createdBy"`
}

type forkRequest struct {
	CreatedBy string `json:"createdBy"`
}

type publishResponse struct {
	Version    domain.QuizVersion    `json:"version"`
	Validation flow.ValidationResult `json:"validation"`
}

type previewRequest struct {
	Responses domain.Responses `json:"responses"`
}

type previewResponse struct {
	Path []flow.PathStep `json:"path"`
}

type startRunRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type answerRequest struct {
	Value any `json:"value"`
}

func (h *Handler) CreateVersion(c *gin.Context) {
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	version, err := h.service.CreateVersion(c.Request.Context(), req.Name, req.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, version)
}

func (h *Handler) ListVersions(c *gin.Context) {
	versions, err := h.service.ListVersions(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *Handler) GetGraph(c *gin.Context) {
	graph, err := h.service.GetGraph(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *Handler) AddNode(c *gin.Context) {
	var node domain.QuizNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.service.AddNode(c.Request.Context(), c.Param("id"), node)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateNode(c *gin.Context) {
	var node domain.QuizNode
	if err := c.ShouldBindJSON(&node); err != nil {
		badRequest(c, err)
		return
	}
	node.ID = c.Param("nodeId")
	updated, err := h.service.UpdateNode(c.Request.Context(), c.Param("id"), node)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteNode(c *gin.Context) {
	if err := h.service.DeleteNode(c.Request.Context(), c.Param("id"), c.Param("nodeId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddEdge(c *gin.Context) {
	var edge domain.QuizEdge
	if err := c.ShouldBindJSON(&edge); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.service.AddEdge(c.Request.Context(), c.Param("id"), edge)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateEdge(c *gin.Context) {
	var edge domain.QuizEdge
	if err := c.ShouldBindJSON(&edge); err != nil {
		badRequest(c, err)
		return
	}
	edge.ID = c.Param("edgeId")
	updated, err := h.service.UpdateEdge(c.Request.Context(), c.Param("id"), edge)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteEdge(c *gin.Context) {
	if err := h.service.DeleteEdge(c.Request.Context(), c.Param("id"), c.Param("edgeId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ValidateVersion(c *gin.Context) {
	result, err := h.service.ValidateVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) PublishVersion(c *gin.Context) {
	version, result, err := h.service.PublishVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse{Version: version, Validation: result})
}

func (h *Handler) ForkVersion(c *gin.Context) {
	var req forkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	graph, err := h.service.ForkVersion(c.Request.Context(), c.Param("id"), req.CreatedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, graph)
}

func (h *Handler) ActiveVersion(c *gin.Context) {
	version, err := h.service.ActiveVersion(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}

func (h *Handler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	path, err := h.service.Preview(c.Request.Context(), c.Param("id"), req.Responses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, previewResponse{Path: path})
}

func (h *Handler) Metrics(c *gin.Context) {
	metrics, err := h.service.Metrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) Export(c *gin.Context) {
	export, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="runs-`+c.Param("id")+`.json"`)
	c.JSON(http.StatusOK, export)
}

func (h *Handler) StartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := h.service.StartRun(c.Request.Context(), c.Param("id"), req.UserID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *Handler) GetRun(c *gin.Context) {
	state, err := h.service.GetRunState(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := h.service.SubmitAnswer(c.Request.Context(), c.Param("id"), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
