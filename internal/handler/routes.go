package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/middleware"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// Handlers groups the endpoint handlers mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Catalog      *CatalogHandler
	Students     *StudentHandler
	Vaccinations *VaccinationHandler
	Schedules    *ScheduleHandler
	Dashboards   *DashboardHandler
	Preferences  *PreferenceHandler
	Exports      *ExportHandler
}

// RegisterRoutes mounts the API on group. Every route except login requires a bearer token.
func RegisterRoutes(group *gin.RouterGroup, tokens middleware.TokenValidator, h Handlers) {
	group.POST("/auth/login", h.Auth.Login)

	secured := group.Group("")
	secured.Use(middleware.JWT(tokens))

	secured.GET("/auth/me", h.Auth.Me)

	schoolData := middleware.RequireCapability(models.CapabilityManageSchoolData)
	schoolDashboard := middleware.RequireCapability(models.CapabilitySchoolDashboard)
	healthDashboard := middleware.RequireCapability(models.CapabilityHealthDashboard)
	catalog := middleware.RequireCapability(models.CapabilityManageCatalog)

	schools := secured.Group("/schools")
	schools.GET("", schoolDashboard, h.Catalog.ListSchools)
	schools.POST("", catalog, h.Catalog.CreateSchool)
	schools.PUT("/:id", catalog, h.Catalog.UpdateSchool)

	students := secured.Group("/students")
	students.GET("", schoolDashboard, h.Students.List)
	students.POST("", schoolData, h.Students.Create)
	students.GET("/:id", schoolDashboard, h.Students.Get)
	students.PUT("/:id", schoolData, h.Students.Update)
	students.DELETE("/:id", schoolData, h.Students.Delete)
	students.GET("/:id/immunization-status", schoolDashboard, h.Students.ImmunizationStatus)
	students.GET("/:id/vaccinations", schoolDashboard, h.Vaccinations.List)
	students.POST("/:id/vaccinations", schoolData, h.Vaccinations.Create)

	vaccinations := secured.Group("/vaccinations", schoolData)
	vaccinations.PUT("/:id", h.Vaccinations.Update)
	vaccinations.DELETE("/:id", h.Vaccinations.Delete)

	vaccines := secured.Group("/vaccines")
	vaccines.GET("", schoolDashboard, h.Catalog.ListVaccines)
	vaccines.POST("", catalog, h.Catalog.CreateVaccine)
	vaccines.PUT("/:id", catalog, h.Catalog.UpdateVaccine)

	schedules := secured.Group("/schedules")
	schedules.GET("", schoolDashboard, h.Schedules.List)
	schedules.GET("/:id", schoolDashboard, h.Schedules.Get)
	schedules.GET("/:id/rules", schoolDashboard, h.Schedules.ListRules)
	schedules.POST("", catalog, h.Schedules.Create)
	schedules.PUT("/:id", catalog, h.Schedules.Update)
	schedules.POST("/:id/activate", catalog, h.Schedules.Activate)
	schedules.POST("/:id/rules", catalog, h.Schedules.CreateRule)
	schedules.PUT("/:id/rules/:ruleId", catalog, h.Schedules.UpdateRule)
	schedules.DELETE("/:id/rules/:ruleId", catalog, h.Schedules.DeleteRule)

	dashboards := secured.Group("/dashboards")
	dashboards.GET("/schools/coverage", schoolDashboard, h.Dashboards.Coverage)
	dashboards.GET("/schools/ranking", healthDashboard, h.Dashboards.Ranking)
	dashboards.GET("/age-distribution", schoolDashboard, h.Dashboards.AgeDistribution)
	dashboards.GET("/preferences/age-buckets", schoolDashboard, h.Preferences.GetAgeBuckets)
	dashboards.PUT("/preferences/age-buckets", schoolDashboard, h.Preferences.PutAgeBuckets)
	dashboards.GET("/system", catalog, h.Dashboards.System)

	exports := secured.Group("/exports", schoolDashboard)
	exports.GET("/students-pending.csv", h.Exports.PendingCSV)
	exports.GET("/students-pending.pdf", h.Exports.PendingPDF)
}
