package bootstrap

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	httpapi "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http"
	apimiddleware "github.com/ocastrobeltran/gestio-qa-backend/internal/api/http/middleware"
	authdomain "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/domain"
	authhttp "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/http"
	authmiddleware "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/middleware"
	userrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/repository"
	authservice "github.com/ocastrobeltran/gestio-qa-backend/internal/auth/service"
	commentshttp "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/http"
	commentsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/repository"
	commentsservice "github.com/ocastrobeltran/gestio-qa-backend/internal/comments/service"
	defectshttp "github.com/ocastrobeltran/gestio-qa-backend/internal/defects/http"
	defectsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/defects/repository"
	defectsservice "github.com/ocastrobeltran/gestio-qa-backend/internal/defects/service"
	historyrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/history/repository"
	historyservice "github.com/ocastrobeltran/gestio-qa-backend/internal/history/service"
	"github.com/ocastrobeltran/gestio-qa-backend/internal/notify"
	projectshttp "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/http"
	projectsrepo "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/repository"
	projectsservice "github.com/ocastrobeltran/gestio-qa-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	FrontendOrigin string
	DB             *sql.DB
	UnitTimeout    time.Duration
	JWTSecret      string
	JWTExpiresIn   time.Duration
	Publisher      notify.Publisher
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimiddleware.RequestIDMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{dep.FrontendOrigin}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB)
	healthHandler.RegisterRoutes(r)

	users := userrepo.NewUserRepository(dep.DB)
	projects := projectsrepo.NewProjectRepository(dep.DB)
	comments := commentsrepo.NewCommentRepository(dep.DB)
	defects := defectsrepo.NewDefectRepository(dep.DB)
	historyRepo := historyrepo.NewHistoryRepository(dep.DB)

	history := historyservice.NewHistoryService(historyRepo)
	authSvc := authservice.NewAuthService(users, dep.JWTSecret, dep.JWTExpiresIn)
	projectSvc := projectsservice.NewProjectService(dep.DB, dep.UnitTimeout, projects, users, comments, history, dep.Publisher)
	commentSvc := commentsservice.NewCommentService(comments, projects, users, dep.Publisher)
	defectSvc := defectsservice.NewDefectService(dep.DB, dep.UnitTimeout, defects, projects, users, history, dep.Publisher)

	authHandler := authhttp.NewHandler(authSvc)
	projectHandler := projectshttp.NewHandler(projectSvc)
	commentHandler := commentshttp.NewHandler(commentSvc)
	defectHandler := defectshttp.NewHandler(defectSvc)

	requireAuth := authmiddleware.RequireAuth(authSvc, users)
	adminOnly := authmiddleware.RequireRoles(authdomain.RoleAdmin)
	adminOrAnalyst := authmiddleware.RequireRoles(authdomain.RoleAdmin, authdomain.RoleAnalyst)

	api := r.Group("/api")

	authPublic := api.Group("/auth")
	authPublic.Use(apimiddleware.LoginRateLimit(rate.Every(6*time.Second), 5))
	authHandler.RegisterPublic(authPublic)

	authProtected := api.Group("/auth")
	authProtected.Use(requireAuth, adminOnly)
	authHandler.RegisterProtected(authProtected)

	usersGroup := api.Group("/users")
	usersGroup.Use(requireAuth, adminOnly)
	authHandler.RegisterUsers(usersGroup)

	projectsGroup := api.Group("/projects")
	projectsGroup.Use(requireAuth)
	projectHandler.Register(projectsGroup, adminOrAnalyst, adminOnly)
	commentHandler.Register(projectsGroup)
	defectHandler.RegisterProjectRoutes(projectsGroup)

	defectsGroup := api.Group("/defects")
	defectsGroup.Use(requireAuth)
	defectHandler.RegisterDefectRoutes(defectsGroup, adminOrAnalyst)

	return r
}
