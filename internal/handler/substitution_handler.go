package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

type substitutionService interface {
	Slots(ctx context.Context, date string) (*dto.SlotListResponse, error)
	Candidates(ctx context.Context, date, absentTeacherID string, period int, filter string) (*dto.CandidateListResponse, error)
	Assign(ctx context.Context, date, absentTeacherID string, period int, req dto.AssignRequest) (*dto.SlotResolutionResponse, error)
	Unassign(ctx context.Context, date, absentTeacherID string, period int) (*dto.SlotResolutionResponse, error)
	ToggleAssistant(ctx context.Context, date, absentTeacherID string, period int) (*dto.SlotResolutionResponse, error)
	ToggleMerge(ctx context.Context, date, absentTeacherID string, period int, req dto.MergeRequest) (*dto.SlotResolutionResponse, error)
	BulkAssign(ctx context.Context, date string, req dto.BulkAssignRequest) (*dto.BulkAssignResponse, error)
	AutoAssign(ctx context.Context, date string) (*dto.AutoAssignResponse, error)
	Snapshot(ctx context.Context, date string) (*dto.SnapshotResponse, error)
	Save(ctx context.Context, date string) (*dto.SaveResponse, error)
	Export(ctx context.Context, date, format string) (*dto.ExportFile, error)
	Pool(ctx context.Context, date string) (*dto.PoolResponse, error)
	ActivatePool(ctx context.Context, date string, req dto.PoolRequest) (*dto.PoolChangeResponse, error)
	DeactivatePool(ctx context.Context, date, teacherID string) (*dto.PoolChangeResponse, error)
	RecordAbsence(ctx context.Context, req dto.RecordAbsenceRequest) (*dto.AbsenceResponse, error)
	ListAbsences(ctx context.Context, date string) ([]models.Absence, error)
	Reload(date string) error
}

// SubstitutionHandler exposes the substitution planning board.
type SubstitutionHandler struct {
	service substitutionService
}

// NewSubstitutionHandler builds a new handler.
func NewSubstitutionHandler(service substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{service: service}
}

// RegisterRoutes mounts the board endpoints. read guards queries, write guards mutations.
func (h *SubstitutionHandler) RegisterRoutes(rg *gin.RouterGroup, read, write gin.HandlerFunc) {
	rg.POST("/absences", write, h.RecordAbsence)
	rg.GET("/absences", read, h.ListAbsences)

	board := rg.Group("/substitutions/:date")
	board.GET("/slots", read, h.Slots)
	board.GET("/slots/:teacherId/:period/candidates", read, h.Candidates)
	board.PUT("/slots/:teacherId/:period", write, h.Assign)
	board.DELETE("/slots/:teacherId/:period", write, h.Unassign)
	board.POST("/slots/:teacherId/:period/assistant", write, h.ToggleAssistant)
	board.POST("/slots/:teacherId/:period/merge", write, h.ToggleMerge)
	board.POST("/bulk", write, h.BulkAssign)
	board.POST("/auto", write, h.AutoAssign)
	board.GET("/snapshot", read, h.Snapshot)
	board.POST("/save", write, h.Save)
	board.POST("/reload", write, h.Reload)
	board.GET("/export", read, h.Export)
	board.GET("/pool", read, h.Pool)
	board.POST("/pool", write, h.ActivatePool)
	board.DELETE("/pool/:teacherId", write, h.DeactivatePool)
}

// Slots godoc
// @Summary List lessons needing cover
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/slots [get]
func (h *SubstitutionHandler) Slots(c *gin.Context) {
	resp, err := h.service.Slots(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Candidates godoc
// @Summary Rank substitute candidates for a slot
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Absent teacher ID"
// @Param period path int true "Period"
// @Param filter query string false "recommended (default) or all"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/slots/{teacherId}/{period}/candidates [get]
func (h *SubstitutionHandler) Candidates(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}
	resp, err := h.service.Candidates(c.Request.Context(), c.Param("date"), c.Param("teacherId"), period, c.Query("filter"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Assign godoc
// @Summary Assign a substitute to a slot
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Absent teacher ID"
// @Param period path int true "Period"
// @Param payload body dto.AssignRequest true "Substitute"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /substitutions/{date}/slots/{teacherId}/{period} [put]
func (h *SubstitutionHandler) Assign(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	resp, err := h.service.Assign(c.Request.Context(), c.Param("date"), c.Param("teacherId"), period, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Unassign godoc
// @Summary Clear a slot
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Absent teacher ID"
// @Param period path int true "Period"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/slots/{teacherId}/{period} [delete]
func (h *SubstitutionHandler) Unassign(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}
	resp, err := h.service.Unassign(c.Request.Context(), c.Param("date"), c.Param("teacherId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// ToggleAssistant godoc
// @Summary Toggle classroom assistant coverage
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Absent teacher ID"
// @Param period path int true "Period"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/slots/{teacherId}/{period}/assistant [post]
func (h *SubstitutionHandler) ToggleAssistant(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}
	resp, err := h.service.ToggleAssistant(c.Request.Context(), c.Param("date"), c.Param("teacherId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// ToggleMerge godoc
// @Summary Toggle merging the slot's class into another class
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Absent teacher ID"
// @Param period path int true "Period"
// @Param payload body dto.MergeRequest true "Target class"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/slots/{teacherId}/{period}/merge [post]
func (h *SubstitutionHandler) ToggleMerge(c *gin.Context) {
	period, ok := periodParam(c)
	if !ok {
		return
	}
	var req dto.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid merge payload"))
		return
	}
	resp, err := h.service.ToggleMerge(c.Request.Context(), c.Param("date"), c.Param("teacherId"), period, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// BulkAssign godoc
// @Summary Assign one substitute to every open slot of an absent teacher
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.BulkAssignRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/bulk [post]
func (h *SubstitutionHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	resp, err := h.service.BulkAssign(c.Request.Context(), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// AutoAssign godoc
// @Summary Fill open slots with the best eligible candidate
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/auto [post]
func (h *SubstitutionHandler) AutoAssign(c *gin.Context) {
	resp, err := h.service.AutoAssign(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Snapshot godoc
// @Summary Current resolution of every slot
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/snapshot [get]
func (h *SubstitutionHandler) Snapshot(c *gin.Context) {
	resp, err := h.service.Snapshot(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// Save godoc
// @Summary Persist the day's substitutions
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 201 {object} response.Envelope
// @Router /substitutions/{date}/save [post]
func (h *SubstitutionHandler) Save(c *gin.Context) {
	resp, err := h.service.Save(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Reload godoc
// @Summary Discard the in-memory board so it is rebuilt from storage
// @Tags Substitutions
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 204
// @Router /substitutions/{date}/reload [post]
func (h *SubstitutionHandler) Reload(c *gin.Context) {
	if err := h.service.Reload(c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Download the cover sheet
// @Tags Substitutions
// @Produce text/csv
// @Produce application/pdf
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /substitutions/{date}/export [get]
func (h *SubstitutionHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("date"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Pool godoc
// @Summary List the reserve pool
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/pool [get]
func (h *SubstitutionHandler) Pool(c *gin.Context) {
	resp, err := h.service.Pool(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// ActivatePool godoc
// @Summary Add a teacher to the reserve pool
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.PoolRequest true "Pool member"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /substitutions/{date}/pool [post]
func (h *SubstitutionHandler) ActivatePool(c *gin.Context) {
	var req dto.PoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pool payload"))
		return
	}
	resp, err := h.service.ActivatePool(c.Request.Context(), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// DeactivatePool godoc
// @Summary Remove a teacher from the reserve pool
// @Tags Substitutions
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param teacherId path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{date}/pool/{teacherId} [delete]
func (h *SubstitutionHandler) DeactivatePool(c *gin.Context) {
	resp, err := h.service.DeactivatePool(c.Request.Context(), c.Param("date"), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, resp)
}

// RecordAbsence godoc
// @Summary Record a staff absence
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body dto.RecordAbsenceRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Router /absences [post]
func (h *SubstitutionHandler) RecordAbsence(c *gin.Context) {
	var req dto.RecordAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	resp, err := h.service.RecordAbsence(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// ListAbsences godoc
// @Summary List absences for a date
// @Tags Absences
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *SubstitutionHandler) ListAbsences(c *gin.Context) {
	items, err := h.service.ListAbsences(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items, map[string]interface{}{"count": len(items)})
}

func periodParam(c *gin.Context) (int, bool) {
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "period must be a number"))
		return 0, false
	}
	return period, true
}
