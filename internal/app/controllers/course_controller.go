package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/app/services"
	"github.com/sepehrad/unienroll/internal/middleware"
)

// CourseController handles course catalog operations
type CourseController struct {
	courseService *services.CourseService
	logger        zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService *services.CourseService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		courseService: courseService,
		logger:        logger,
	}
}

// Create adds a course and its prerequisite edges to the catalog
func (c *CourseController) Create(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error()),
		})
		return
	}

	course, err := c.courseService.AddCourse(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("code", req.Code).Msg("Course creation rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: course})
}

// Get retrieves a course by code with prerequisites populated
func (c *CourseController) Get(ctx *gin.Context) {
	course, err := c.courseService.GetCourse(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: course})
}

// List retrieves the whole catalog
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.courseService.ListCourses(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: courses})
}

// Delete removes a course that no other course depends on
func (c *CourseController) Delete(ctx *gin.Context) {
	code := ctx.Param("code")
	if err := c.courseService.DeleteCourse(ctx.Request.Context(), code); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Course deleted"}})
}
