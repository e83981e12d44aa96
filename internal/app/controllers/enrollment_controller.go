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

// EnrollmentController handles enrollment and drop operations
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
	semesterService   *services.SemesterService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService, semesterService *services.SemesterService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		semesterService:   semesterService,
		logger:            logger,
	}
}

// Enroll admits the calling student into an offering
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		})
		return
	}

	var req dto.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(),
		studentID, req.CourseCode, req.Section, req.SemesterName)
	if err != nil {
		c.logger.Warn().Err(err).
			Int64("studentId", studentID).
			Str("course", req.CourseCode).
			Msg("Enrollment rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: enrollment})
}

// Drop retracts the calling student's own SELECTED enrollment
func (c *EnrollmentController) Drop(ctx *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		})
		return
	}

	var req dto.DropRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	err := c.enrollmentService.Drop(ctx.Request.Context(),
		studentID, req.CourseCode, req.Section, req.SemesterName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Enrollment dropped"}})
}

// ProfessorDrop removes a student from a section the caller teaches
func (c *EnrollmentController) ProfessorDrop(ctx *gin.Context) {
	professorID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		})
		return
	}

	var req dto.ProfessorDropRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	err := c.enrollmentService.ProfessorDrop(ctx.Request.Context(),
		professorID, req.StudentID, req.CourseCode, req.Section, req.SemesterName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Enrollment dropped"}})
}

// ListMine retrieves the calling student's enrollments in a semester
func (c *EnrollmentController) ListMine(ctx *gin.Context) {
	studentID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		})
		return
	}

	semesterName := ctx.Query("semester")
	if semesterName == "" {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Query parameter 'semester' is required"),
		})
		return
	}

	semester, err := c.semesterService.GetSemester(ctx.Request.Context(), semesterName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	enrollments, err := c.enrollmentService.ListSemesterEnrollments(ctx.Request.Context(), studentID, semester.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: enrollments})
}

// Grade transitions a SELECTED enrollment to PASSED or FAILED
func (c *EnrollmentController) Grade(ctx *gin.Context) {
	enrollmentID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Enrollment id must be an integer"),
		})
		return
	}

	var req dto.GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	if err := c.enrollmentService.Grade(ctx.Request.Context(), enrollmentID, req.Result); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Enrollment graded"}})
}
