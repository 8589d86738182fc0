package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	importapp "github.com/earthcare/backend/internal/application/import"
	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/earthcare/backend/internal/infrastructure/logger"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/earthcare/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportHandler handles bulk CSV import endpoints
type ImportHandler struct {
	BaseHandler
	service     *importapp.ImportService
	maxFileSize int64
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service *importapp.ImportService, maxFileSize int64) *ImportHandler {
	return &ImportHandler{
		service:     service,
		maxFileSize: maxFileSize,
	}
}

// Upload godoc
//
//	@Summary		Upload a CSV file for import
//	@Description	Decodes the file, detects its headers and creates an import job in the uploaded state
//	@Tags			imports
//	@ID				uploadImport
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"CSV file"
//	@Param			entity_type	formData	string	true	"Record kind"	Enums(enterprise, person, opportunity)
//	@Success		201			{object}	APIResponse[dto.ImportUploadResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		415			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/upload [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	userID, workspaceID, ok := h.identity(c)
	if !ok {
		return
	}

	var req dto.ImportUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			h.fileTooLarge(c)
			return
		}
		h.bindError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			h.fileTooLarge(c)
			return
		}
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.fileTooLarge(c)
		return
	}

	// One byte past the limit lets the service report the size error
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.HandleError(c, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	result, err := h.service.Upload(c.Request.Context(), importapp.UploadInput{
		UserID:      userID,
		WorkspaceID: workspaceID,
		EntityType:  req.EntityType,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.ImportUploadResponse{
		JobID:     result.Job.ID.String(),
		Headers:   result.Headers,
		TotalRows: result.Job.TotalRows,
	})
}

// Template godoc
//
//	@Summary		Download an import template
//	@Description	Returns a CSV whose header lists the importable fields of the kind, followed by example rows
//	@Tags			imports
//	@ID				downloadImportTemplate
//	@Produce		text/csv
//	@Param			entity	query		string	true	"Record kind"	Enums(enterprise, person, opportunity)
//	@Success		200		{file}		file
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/templates [get]
func (h *ImportHandler) Template(c *gin.Context) {
	kind := bulk.EntityKind(c.Query("entity"))
	if !kind.IsValid() {
		h.HandleError(c, shared.NewDomainError(csvimport.ErrCodeImportInvalidEntity,
			fmt.Sprintf("Entity must be one of enterprise, person, opportunity, got %q", kind)))
		return
	}

	content, fileName, err := importapp.Template(kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendCSV(c, content, fileName)
}

// Configure godoc
//
//	@Summary		Configure an uploaded import
//	@Description	Sets the column mapping and duplicate strategy, then schedules background processing
//	@Tags			imports
//	@ID				configureImport
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Job ID"	format(uuid)
//	@Param			request	body		dto.ImportConfigureRequest	true	"Mapping and duplicate strategy"
//	@Success		202		{object}	APIResponse[dto.ImportJobResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/{id}/configure [post]
func (h *ImportHandler) Configure(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	var req dto.ImportConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	job, err := h.service.Configure(c.Request.Context(), importapp.ConfigureInput{
		UserID:   userID,
		JobID:    jobID,
		Mapping:  req.Mapping,
		Strategy: req.DuplicateStrategy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, dto.ToImportJobResponse(job))
}

// GetStatus godoc
//
//	@Summary		Get import status
//	@Description	Returns job progress and, when rows failed, the first row errors
//	@Tags			imports
//	@ID				getImportStatus
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[dto.ImportStatusResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/{id} [get]
func (h *ImportHandler) GetStatus(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ImportStatusResponse{
		ImportJobResponse: dto.ToImportJobResponse(status.Job),
		Errors:            dto.ToImportRowErrorResponses(status.Errors),
		HasMoreErrors:     status.HasMoreErrors,
	})
}

// Cancel godoc
//
//	@Summary		Cancel an import
//	@Description	Cancels a job that has not finished; rows already written stay in place
//	@Tags			imports
//	@ID				cancelImport
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{object}	APIResponse[dto.ImportJobResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/{id}/cancel [post]
func (h *ImportHandler) Cancel(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	job, err := h.service.Cancel(c.Request.Context(), userID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ToImportJobResponse(job))
}

// ListHistory godoc
//
//	@Summary		List imports
//	@Description	Returns the caller's import jobs, newest first
//	@Tags			imports
//	@ID				listImports
//	@Produce		json
//	@Param			entity_type	query		string	false	"Filter by record kind"	Enums(enterprise, person, opportunity)
//	@Param			status		query		string	false	"Filter by status"		Enums(uploaded, mapping, processing, completed, failed, cancelled)
//	@Param			page		query		int		false	"Page number (default: 1)"
//	@Param			page_size	query		int		false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]dto.ImportJobResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports [get]
func (h *ImportHandler) ListHistory(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var req dto.ImportHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	result, err := h.service.ListHistory(c.Request.Context(), userID, importapp.HistoryFilter{
		EntityType: req.EntityType,
		Status:     req.Status,
	}, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToImportJobResponses(result.Items), result.TotalCount, result.Page, result.PageSize)
}

// ListErrors godoc
//
//	@Summary		List row errors of an import
//	@Description	Returns a page of failed rows ordered by row number
//	@Tags			imports
//	@ID				listImportErrors
//	@Produce		json
//	@Param			id			path		string	true	"Job ID"	format(uuid)
//	@Param			page		query		int		false	"Page number (default: 1)"
//	@Param			page_size	query		int		false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]dto.ImportRowErrorResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/{id}/errors [get]
func (h *ImportHandler) ListErrors(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	var req dto.ImportErrorsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	result, err := h.service.ListErrors(c.Request.Context(), userID, jobID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToImportRowErrorResponses(result.Items), result.TotalCount, result.Page, result.PageSize)
}

// ExportErrors godoc
//
//	@Summary		Export row errors as CSV
//	@Description	Downloads every failed row of a job with its error type, message and raw data
//	@Tags			imports
//	@ID				exportImportErrors
//	@Produce		text/csv
//	@Param			id	path		string	true	"Job ID"	format(uuid)
//	@Success		200	{file}		file
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/imports/{id}/errors/export [get]
func (h *ImportHandler) ExportErrors(c *gin.Context) {
	userID, _, ok := h.identity(c)
	if !ok {
		return
	}
	jobID, ok := h.jobID(c)
	if !ok {
		return
	}

	content, fileName, err := h.service.ExportErrorsCSV(c.Request.Context(), userID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendCSV(c, content, fileName)
}

// identity reads the caller from the JWT claims, answering 401 when they are missing
func (h *ImportHandler) identity(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	who, err := callerFrom(c)
	if err != nil {
		logger.FromContext(c.Request.Context()).Debug("Rejecting request without identity", zap.Error(err))
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}
	return who.UserID, who.WorkspaceID, true
}

func (h *ImportHandler) jobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import job ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ImportHandler) bindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		middleware.HandleValidationError(c, validationErrs)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body is malformed")
}

func (h *ImportHandler) fileTooLarge(c *gin.Context) {
	h.HandleError(c, shared.NewDomainError(csvimport.ErrCodeImportFileTooLarge,
		fmt.Sprintf("File exceeds the maximum size of %d bytes", h.maxFileSize)))
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func sendCSV(c *gin.Context, content []byte, fileName string) {
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Header("Content-Length", strconv.Itoa(len(content)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", content)
}
