package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/app/services"
	"github.com/sepehrad/unienroll/internal/middleware"
)

// OfferingController handles course offering operations
type OfferingController struct {
	offeringService *services.OfferingService
	logger          zerolog.Logger
}

// NewOfferingController creates a new OfferingController
func NewOfferingController(offeringService *services.OfferingService, logger zerolog.Logger) *OfferingController {
	return &OfferingController{
		offeringService: offeringService,
		logger:          logger,
	}
}

// Create opens a new section of a course in a semester
func (c *OfferingController) Create(ctx *gin.Context) {
	var req dto.CreateOfferingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	offering, err := c.offeringService.CreateOffering(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("course", req.CourseCode).Msg("Offering creation rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: offering})
}

// Get resolves an offering by (course code, section, semester name)
func (c *OfferingController) Get(ctx *gin.Context) {
	section, err := strconv.Atoi(ctx.Param("section"))
	if err != nil || section <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Section must be a positive integer"),
		})
		return
	}

	offering, err := c.offeringService.GetOffering(ctx.Request.Context(),
		ctx.Param("code"), section, ctx.Query("semester"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: offering})
}

// ListBySemester retrieves every offering of a semester
func (c *OfferingController) ListBySemester(ctx *gin.Context) {
	offerings, err := c.offeringService.ListSemesterOfferings(ctx.Request.Context(), ctx.Param("name"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: offerings})
}

// ListTimeSlots retrieves the fixed weekly slot catalog
func (c *OfferingController) ListTimeSlots(ctx *gin.Context) {
	slots, err := c.offeringService.ListTimeSlots(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: slots})
}
