package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableEngine interface {
	Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error)
	Validate(ctx context.Context, req dto.ValidateSessionRequest) (*timetable.ValidationResult, error)
	Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResponse, error)
	GetProposal(ctx context.Context, id string) (*models.ScheduleProposal, error)
	CommitProposal(ctx context.Context, req dto.CommitProposalRequest) (*dto.CommitProposalResponse, error)
	Resolve(ctx context.Context, req dto.ResolveConflictRequest) (*dto.ResolveConflictResponse, error)
	ResolveAll(ctx context.Context, req dto.ResolveAllRequest) (*dto.ResolveAllResponse, error)
	ExportSessions(ctx context.Context, req dto.ExportSessionsRequest) (*dto.ExportFile, error)
	ExportConflicts(ctx context.Context, req dto.DetectConflictsRequest) (*dto.ExportFile, error)
}

// TimetableHandler exposes the timetable engine over HTTP.
type TimetableHandler struct {
	service timetableEngine
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Register mounts the timetable routes on the group.
func (h *TimetableHandler) Register(rg *gin.RouterGroup) {
	group := rg.Group("/timetable")
	group.POST("/conflicts/detect", h.Detect)
	group.POST("/conflicts/resolve", h.Resolve)
	group.POST("/conflicts/resolve-all", h.ResolveAll)
	group.POST("/sessions/validate", h.Validate)
	group.POST("/schedule", h.Schedule)
	group.GET("/proposals/:id", h.GetProposal)
	group.POST("/proposals/:id/commit", h.CommitProposal)
	group.POST("/export/sessions", h.ExportSessions)
	group.POST("/export/conflicts", h.ExportConflicts)
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// Detect godoc
// @Summary Detect timetable conflicts
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.DetectConflictsRequest true "Sessions or scope to check"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/detect [post]
func (h *TimetableHandler) Detect(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if !bindJSON(c, &req, "invalid detect payload") {
		return
	}
	result, err := h.service.Detect(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Validate godoc
// @Summary Validate a candidate session against the schedule
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ValidateSessionRequest true "Candidate session"
// @Success 200 {object} response.Envelope
// @Router /timetable/sessions/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	var req dto.ValidateSessionRequest
	if !bindJSON(c, &req, "invalid validate payload") {
		return
	}
	result, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Schedule godoc
// @Summary Bulk-schedule work items into a proposal
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Work items, slots and rooms"
// @Success 201 {object} response.Envelope
// @Router /timetable/schedule [post]
func (h *TimetableHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	result, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, map[string]interface{}{"mode": "preview"})
}

// GetProposal godoc
// @Summary Get a stored schedule proposal
// @Tags Timetable
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /timetable/proposals/{id} [get]
func (h *TimetableHandler) GetProposal(c *gin.Context) {
	proposal, err := h.service.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// CommitProposal godoc
// @Summary Persist a schedule proposal
// @Tags Timetable
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/proposals/{id}/commit [post]
func (h *TimetableHandler) CommitProposal(c *gin.Context) {
	result, err := h.service.CommitProposal(c.Request.Context(), dto.CommitProposalRequest{ProposalID: c.Param("id")})
	if err != nil {
		var conflictErr *models.TimetableConflictError
		if errors.As(err, &conflictErr) {
			response.Error(c, err, map[string]interface{}{"conflicts": conflictErr.Conflicts})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Resolve godoc
// @Summary Repair one timetable conflict
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ResolveConflictRequest true "Sessions and the conflict to repair"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/conflicts/resolve [post]
func (h *TimetableHandler) Resolve(c *gin.Context) {
	var req dto.ResolveConflictRequest
	if !bindJSON(c, &req, "invalid resolve payload") {
		return
	}
	result, err := h.service.Resolve(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.Error(c, err, map[string]interface{}{"result": result})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ResolveAll godoc
// @Summary Repair conflicts iteratively
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ResolveAllRequest true "Sessions and repair options"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/resolve-all [post]
func (h *TimetableHandler) ResolveAll(c *gin.Context) {
	var req dto.ResolveAllRequest
	if !bindJSON(c, &req, "invalid resolve-all payload") {
		return
	}
	result, err := h.service.ResolveAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportSessions godoc
// @Summary Export sessions as CSV
// @Tags Timetable
// @Accept json
// @Produce text/csv
// @Param payload body dto.ExportSessionsRequest true "Sessions or scope"
// @Success 200 {file} file
// @Router /timetable/export/sessions [post]
func (h *TimetableHandler) ExportSessions(c *gin.Context) {
	var req dto.ExportSessionsRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	file, err := h.service.ExportSessions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// ExportConflicts godoc
// @Summary Export detected conflicts as CSV
// @Tags Timetable
// @Accept json
// @Produce text/csv
// @Param payload body dto.DetectConflictsRequest true "Sessions or scope"
// @Success 200 {file} file
// @Router /timetable/export/conflicts [post]
func (h *TimetableHandler) ExportConflicts(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if !bindJSON(c, &req, "invalid export payload") {
		return
	}
	file, err := h.service.ExportConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
