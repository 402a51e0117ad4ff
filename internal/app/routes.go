package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/admin"
	"github.com/jambushrusti/platform/internal/plugins/auth"
	"github.com/jambushrusti/platform/internal/plugins/learning"
	"github.com/jambushrusti/platform/internal/plugins/library"
	"github.com/jambushrusti/platform/internal/plugins/scholars"
	"github.com/jambushrusti/platform/internal/plugins/tickets"
)

// RegisterRoutes builds every plugin's repository/service/handler chain and
// registers all routes. This is the single place where all routes are
// aggregated and where each area's guard is defined.
func RegisterRoutes(a *App, store *auth.SessionStore) {
	e := a.Echo

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
		}
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// --- Auth plugin (the core everything else depends on) ---
	userRepo := auth.NewUserRepository(a.DB)
	resolver := auth.NewIdentityResolver(userRepo)
	authService := auth.NewAuthService(userRepo, resolver, store)
	authHandler := auth.NewHandler(authService, a.Sessions)
	auth.RegisterRoutes(e, authHandler)

	// --- Area guards ---
	// Each area lists the roles it accepts explicitly; roles are flat
	// labels, not a hierarchy.
	memberGuard := auth.Guard{
		Manager:   a.Sessions,
		LoginPath: "/login",
	}
	learnerGuard := auth.Guard{
		Manager:   a.Sessions,
		LoginPath: "/learning/login",
	}
	librarianGuard := auth.Guard{
		Manager:      a.Sessions,
		LoginPath:    "/lms/login",
		AllowedRoles: []auth.Role{auth.RoleLibrarian, auth.RoleAdmin, auth.RoleSuperadmin},
	}
	scholarGuard := auth.Guard{
		Manager:      a.Sessions,
		LoginPath:    "/research/login",
		AllowedRoles: []auth.Role{auth.RoleScholar, auth.RoleAdmin, auth.RoleSuperadmin},
	}
	staffGuard := auth.Guard{
		Manager:      a.Sessions,
		LoginPath:    "/admin/login",
		AllowedRoles: []auth.Role{auth.RoleAdmin, auth.RoleSuperadmin},
	}
	// optionalGuard attaches the session when one is present but never
	// blocks. Used where anonymous and signed-in visitors share a route.
	optionalGuard := auth.Guard{
		Manager:    a.Sessions,
		DemoBypass: true,
	}
	// demoGuard is the ticket-area guard. In demo mode it is the optional
	// guard; otherwise tickets require a signed-in member.
	demoGuard := memberGuard
	if a.Config.DemoTickets {
		demoGuard = optionalGuard
	}

	// --- Library plugin ---
	bookRepo := library.NewBookRepository(a.DB)
	libraryService := library.NewLibraryService(bookRepo)
	library.RegisterRoutes(e, library.NewHandler(libraryService), memberGuard, librarianGuard)

	// --- Learning plugin ---
	courseRepo := learning.NewCourseRepository(a.DB)
	learningService := learning.NewLearningService(courseRepo)
	learning.RegisterRoutes(e, learning.NewHandler(learningService), learnerGuard, staffGuard)

	// --- Scholars plugin ---
	articleRepo := scholars.NewArticleRepository(a.DB)
	scholarService := scholars.NewScholarService(articleRepo, authService)
	scholars.RegisterRoutes(e, scholars.NewHandler(scholarService), optionalGuard, memberGuard, scholarGuard)

	// --- Tickets plugin ---
	ticketRepo := tickets.NewTicketRepository(a.DB)
	ticketService := tickets.NewTicketService(ticketRepo, a.Notifier, a.Config.Mail.FromAddress)
	tickets.RegisterRoutes(e, tickets.NewHandler(ticketService), demoGuard, staffGuard)

	// --- Admin plugin ---
	adminService := admin.NewAdminService(userRepo, authService)
	admin.RegisterRoutes(e, admin.NewHandler(adminService), staffGuard)
}
