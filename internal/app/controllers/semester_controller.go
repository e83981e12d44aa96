package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/app/services"
	"github.com/sepehrad/unienroll/internal/middleware"
)

// SemesterController handles academic term operations
type SemesterController struct {
	semesterService *services.SemesterService
	logger          zerolog.Logger
}

// NewSemesterController creates a new SemesterController
func NewSemesterController(semesterService *services.SemesterService, logger zerolog.Logger) *SemesterController {
	return &SemesterController{
		semesterService: semesterService,
		logger:          logger,
	}
}

// Create creates an academic term
func (c *SemesterController) Create(ctx *gin.Context) {
	var req dto.CreateSemesterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	semester, err := c.semesterService.CreateSemester(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: semester})
}

// Update patches a semester field by field
func (c *SemesterController) Update(ctx *gin.Context) {
	var req dto.UpdateSemesterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	semester, err := c.semesterService.UpdateSemester(ctx.Request.Context(), ctx.Param("name"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: semester})
}

// Get retrieves a semester by its unique name
func (c *SemesterController) Get(ctx *gin.Context) {
	semester, err := c.semesterService.GetSemester(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: semester})
}

// List retrieves all semesters ordered by start date
func (c *SemesterController) List(ctx *gin.Context) {
	semesters, err := c.semesterService.ListSemesters(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: semesters})
}
