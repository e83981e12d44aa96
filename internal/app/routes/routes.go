package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sepehrad/unienroll/internal/app/controllers"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	semesterController *controllers.SemesterController,
	offeringController *controllers.OfferingController,
	enrollmentController *controllers.EnrollmentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.Refresh)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		// Catalog reads are open to every authenticated role
		courses := authenticated.Group("/courses")
		{
			courses.GET("", courseController.List)
			courses.GET("/:code", courseController.Get)
			courses.GET("/:code/sections/:section", offeringController.Get)

			coursesAdmin := courses.Group("")
			coursesAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				coursesAdmin.POST("", courseController.Create)
				coursesAdmin.DELETE("/:code", courseController.Delete)
			}
		}

		semesters := authenticated.Group("/semesters")
		{
			semesters.GET("", semesterController.List)
			semesters.GET("/:name", semesterController.Get)
			semesters.GET("/:name/offerings", offeringController.ListBySemester)

			semestersAdmin := semesters.Group("")
			semestersAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				semestersAdmin.POST("", semesterController.Create)
				semestersAdmin.PATCH("/:name", semesterController.Update)
			}
		}

		authenticated.GET("/time-slots", offeringController.ListTimeSlots)

		offeringsAdmin := authenticated.Group("/offerings")
		offeringsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			offeringsAdmin.POST("", offeringController.Create)
		}

		// Student enrollment routes
		enrollments := authenticated.Group("/enrollments")
		{
			enrollmentsStudent := enrollments.Group("")
			enrollmentsStudent.Use(authMiddleware.RoleRequired(models.RoleStudent))
			{
				enrollmentsStudent.POST("", enrollmentController.Enroll)
				enrollmentsStudent.POST("/drop", enrollmentController.Drop)
				enrollmentsStudent.GET("/mine", enrollmentController.ListMine)
			}

			enrollmentsProfessor := enrollments.Group("")
			enrollmentsProfessor.Use(authMiddleware.RoleRequired(models.RoleProfessor))
			{
				enrollmentsProfessor.POST("/professor-drop", enrollmentController.ProfessorDrop)
			}

			enrollmentsAdmin := enrollments.Group("")
			enrollmentsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin, models.RoleProfessor))
			{
				enrollmentsAdmin.POST("/:id/grade", enrollmentController.Grade)
			}
		}
	}
}
