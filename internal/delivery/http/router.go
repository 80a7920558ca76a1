package http

import (
	"log/slog"
	"net/http"

	"festivalscheduling/internal/delivery/http/controllers"
	"festivalscheduling/internal/delivery/http/middleware"
	"festivalscheduling/internal/domain"
	"festivalscheduling/internal/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds what NewRouter needs to build the HTTP handler.
type RouterDeps struct {
	Logger             *slog.Logger
	TokenVerifier      domain.TokenVerifier
	Metrics            *metrics.Metrics
	CORSAllowedOrigins []string
	BaseDomain         string

	Users     *controllers.UserController
	Festivals *controllers.FestivalController
	Schedule  *controllers.ScheduleController
	Imports   *controllers.ImportController
	Bookings  *controllers.BookingController
	Teachers  *controllers.TeacherController
}

// NewRouter initializes the HTTP router with all application routes and wraps it
// with logging, CORS, tenant resolution and request metrics.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.TokenVerifier, d.Logger)

	// Auth
	mux.HandleFunc("POST /auth/login-code", d.Users.RequestLoginCode)
	mux.HandleFunc("POST /auth/verify", d.Users.VerifyLoginCode)

	// Users
	mux.HandleFunc("GET /users/me", auth(d.Users.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(d.Users.UpdateMe))

	// Festivals
	mux.HandleFunc("POST /festivals", auth(d.Festivals.CreateFestival))
	mux.HandleFunc("GET /festivals/me", auth(d.Festivals.ListMyFestivals))
	mux.HandleFunc("GET /festivals/{festivalID}", auth(d.Festivals.GetFestival))
	mux.HandleFunc("PATCH /festivals/{festivalID}", auth(d.Festivals.UpdateFestival))
	mux.HandleFunc("DELETE /festivals/{festivalID}", auth(d.Festivals.DeleteFestival))

	// Sessions
	mux.HandleFunc("GET /festivals/{festivalID}/sessions", auth(d.Schedule.ListSessions))
	mux.HandleFunc("POST /festivals/{festivalID}/sessions", auth(d.Schedule.CreateSession))
	mux.HandleFunc("PATCH /festivals/{festivalID}/sessions/{sessionID}", auth(d.Schedule.UpdateSession))
	mux.HandleFunc("DELETE /festivals/{festivalID}/sessions/{sessionID}", auth(d.Schedule.DeleteSession))
	mux.HandleFunc("PUT /festivals/{festivalID}/sessions/order", auth(d.Schedule.ReorderSessions))
	mux.HandleFunc("POST /festivals/{festivalID}/sessions/normalize", auth(d.Schedule.NormalizeDisplayOrders))
	mux.HandleFunc("GET /festivals/{festivalID}/sessions/{sessionID}/bookings", auth(d.Bookings.ListSessionBookings))

	// Import
	mux.HandleFunc("POST /festivals/{festivalID}/import/csv", auth(d.Imports.ImportCSV))
	mux.HandleFunc("POST /festivals/{festivalID}/import/sheet", auth(d.Imports.ImportSheet))

	// Teachers
	mux.HandleFunc("GET /festivals/{festivalID}/teachers", auth(d.Teachers.ListTeachers))
	mux.HandleFunc("POST /festivals/{festivalID}/teachers", auth(d.Teachers.CreateTeacher))
	mux.HandleFunc("POST /festivals/{festivalID}/teachers/bulk", auth(d.Teachers.BulkCreateTeachers))
	mux.HandleFunc("DELETE /festivals/{festivalID}/teachers/{teacherID}", auth(d.Teachers.DeleteTeacher))

	// Public
	mux.HandleFunc("GET /public/festivals/{slug}/schedule", d.Schedule.GetPublicSchedule)
	mux.HandleFunc("GET /schedule", d.Schedule.GetTenantSchedule)
	mux.HandleFunc("POST /public/festivals/{slug}/sessions/{sessionID}/bookings", d.Bookings.CreateBooking)
	mux.HandleFunc("DELETE /public/bookings/{bookingID}", d.Bookings.CancelBooking)

	// Ops
	mux.Handle("GET /metrics", d.Metrics.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Metrics wraps the mux directly: it reads r.Pattern, which ServeMux sets on
	// the request it receives.
	var handler http.Handler = d.Metrics.RequestTrackingMiddleware(mux)
	handler = middleware.Tenant(d.BaseDomain, handler)
	handler = middleware.CORS(d.CORSAllowedOrigins, handler)
	return middleware.LoggingMiddleware(d.Logger, handler)
}
