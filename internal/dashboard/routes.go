package dashboard

import (
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/report"
	"gorm.io/gorm"
)

const (
	// recentSessions is how many sessions the index page lists.
	recentSessions = 10
	// activityWindow is the look-back period for the index activity panel.
	activityWindow = 7 * 24 * time.Hour
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB) {
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", handleIndex(db))
	router.GET("/users", handleUsers(db))
	router.GET("/users/:id", handleUserDetail(db))
	router.GET("/routines", handleRoutines(db))
	router.GET("/routines/:id", handleRoutineDetail(db))
	router.GET("/sessions", handleSessions(db))
	router.GET("/sessions/:id", handleSessionDetail(db))

	router.NoRoute(func(c *gin.Context) {
		renderError(c, apperr.NotFound("page", c.Request.URL.Path))
	})
}

func handleIndex(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := report.GetCounts(db)
		if err != nil {
			renderError(c, err)
			return
		}
		activity, err := report.Activity(db, time.Now().Add(-activityWindow))
		if err != nil {
			renderError(c, err)
			return
		}
		sessions, err := report.RecentSessions(db, recentSessions)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "index", gin.H{
			"counts":   counts,
			"activity": activity,
			"sessions": sessions,
		})
	}
}

func handleUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := report.ListUsers(db)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "users", gin.H{"users": users})
	}
}

func handleUserDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := report.UserDetail(db, c.Param("id"))
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "user-detail", gin.H{"view": view})
	}
}

func handleRoutines(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		routines, err := report.ListRoutines(db)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "routines", gin.H{"routines": routines})
	}
}

func handleRoutineDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "routine")
		if !ok {
			return
		}
		view, err := report.AdminRoutineDetail(db, id)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "routine-detail", gin.H{"view": view})
	}
}

func handleSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := report.ListSessions(db)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "sessions", gin.H{"sessions": sessions})
	}
}

func handleSessionDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "session")
		if !ok {
			return
		}
		view, err := report.AdminSessionDetail(db, id)
		if err != nil {
			renderError(c, err)
			return
		}
		render(c, "session-detail", gin.H{"view": view})
	}
}

// pathID parses the :id parameter. A malformed id renders the not-found
// page, since no such record can exist.
func pathID(c *gin.Context, entity string) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		renderError(c, apperr.NotFound(entity, raw))
		return 0, false
	}
	return uint(id), true
}

func render(c *gin.Context, page string, data gin.H) {
	data["page"] = page
	c.HTML(http.StatusOK, "layout.html", data)
}

// renderError maps an error kind to a status code and error page.
// Unexpected failures are logged and shown without detail.
func renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong loading this page."
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		log.Printf("dashboard: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.HTML(status, "layout.html", gin.H{
		"page":    "error",
		"status":  status,
		"message": message,
	})
}
