package handler

import (
	"github.com/gin-gonic/gin"

	internalmiddleware "github.com/noah-isme/attendsmart-api/internal/middleware"
)

// Handlers groups every HTTP surface registered under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Semester      *SemesterHandler
	Timetable     *TimetableHandler
	Holiday       *HolidayHandler
	Attendance    *AttendanceHandler
	Notifications *NotificationHandler
}

// RegisterRoutes mounts the public login route and the bearer-protected API.
func RegisterRoutes(api *gin.RouterGroup, tokens internalmiddleware.TokenValidator, h Handlers) {
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(tokens))

	secured.GET("/auth/me", h.Auth.Me)

	secured.GET("/semester", h.Semester.Get)
	secured.PUT("/semester", h.Semester.Update)

	timetable := secured.Group("/timetable")
	timetable.GET("", h.Timetable.List)
	timetable.POST("", h.Timetable.Create)
	timetable.GET("/tomorrow", h.Timetable.Tomorrow)
	timetable.PUT("/:id", h.Timetable.Update)
	timetable.DELETE("/:id", h.Timetable.Delete)

	holidays := secured.Group("/holidays")
	holidays.GET("", h.Holiday.List)
	holidays.POST("", h.Holiday.Create)
	holidays.GET("/national", h.Holiday.ListNational)
	holidays.POST("/national", h.Holiday.CreateNational)
	holidays.POST("/national/import", h.Holiday.ImportNational)
	holidays.PUT("/:id", h.Holiday.Update)
	holidays.DELETE("/:id", h.Holiday.Delete)

	attendance := secured.Group("/attendance")
	attendance.GET("/today", h.Attendance.Today)
	attendance.POST("/mark", h.Attendance.Mark)
	attendance.GET("/summary", h.Attendance.Summary)
	attendance.GET("/risk", h.Attendance.Risk)
	attendance.GET("/occurrences", h.Attendance.Occurrences)
	attendance.GET("/report", h.Attendance.Report)

	secured.GET("/notifications/settings", h.Notifications.GetSettings)
	secured.PUT("/notifications/settings", h.Notifications.UpdateSettings)
}
