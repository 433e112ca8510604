// Package router assembles the gin engine and the route table.
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/uniattend-api/internal/handler"
	"github.com/noah-isme/uniattend-api/internal/middleware"
	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/service"
	"github.com/noah-isme/uniattend-api/pkg/config"
	"github.com/noah-isme/uniattend-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/uniattend-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/uniattend-api/pkg/middleware/requestid"
)

// Dependencies carries the services the routes call into.
type Dependencies struct {
	Auth       *service.AuthService
	Students   *service.StudentService
	Subjects   *service.SubjectService
	Attendance *service.AttendanceService
	Dashboard  *service.DashboardService
	Exports    *service.ExportService
	Metrics    *service.MetricsService
	Ready      handler.ReadinessCheck
	Logger     *zap.Logger
}

// New builds the engine with the ambient middleware chain and every route.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.Metrics))

	ops := handler.NewMetricsHandler(deps.Metrics, deps.Ready)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	dashboard := handler.NewDashboardHandler(deps.Dashboard)
	secured.GET("/dashboard", dashboard.Get)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	facultyOnly := middleware.RequireRoles(models.RoleFaculty)

	students := handler.NewStudentHandler(deps.Students)
	secured.GET("/students", staff, students.List)
	secured.GET("/students/:id", staff, students.Get)
	secured.POST("/students", adminOnly, students.Create)

	subjects := handler.NewSubjectHandler(deps.Subjects)
	secured.GET("/subjects", subjects.List)
	secured.GET("/subjects/:id", subjects.Get)
	secured.POST("/subjects", adminOnly, subjects.Create)

	attendance := handler.NewAttendanceHandler(deps.Attendance)
	secured.GET("/attendance", staff, attendance.List)
	secured.POST("/attendance", facultyOnly, attendance.Mark)
	secured.GET("/attendance/roster", facultyOnly, attendance.Roster)

	reports := handler.NewReportHandler(deps.Exports)
	secured.GET("/reports/attendance", adminOnly, reports.Attendance)
	secured.GET("/reports/students/:id", adminOnly, reports.Student)

	return r
}
