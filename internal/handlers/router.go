package handlers

import (
	"net/http"
	"time"

	"clinic-backend/internal/database"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/scheduling"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures NewRouter.
type Options struct {
	Auth        *middleware.Auth
	Window      scheduling.Window
	StaticDir   string
	CORSOrigins []string
}

var (
	tokens       *middleware.Auth
	clinicWindow = scheduling.DefaultWindow
	staticDir    = "./public"
)

// NewRouter wires every route. Handlers read database.DB, so it must be
// initialised before requests are served.
func NewRouter(opts Options) *gin.Engine {
	tokens = opts.Auth
	if opts.Window != (scheduling.Window{}) {
		clinicWindow = opts.Window
	}
	if opts.StaticDir != "" {
		staticDir = opts.StaticDir
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	staff := []models.Role{models.RoleDoctor, models.RoleReceptionist, models.RoleLabTechnician}
	allow := tokens.Allow
	admin := tokens.AdminOnly()

	api := r.Group("/api")
	api.GET("/health", Health)
	api.POST("/login", Login)
	api.POST("/register/:role", Register)
	api.POST("/visits", RecordVisit)
	api.GET("/visits/stats", admin, VisitStats)

	pending := api.Group("/admin/pending", admin)
	{
		pending.GET("/:role", ListPending)
		pending.POST("/:role/:id/verify", VerifyPending)
		pending.DELETE("/:role/:id", RejectPending)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", allow(), ListDoctors)
		doctors.GET("/:id", allow(), GetDoctor)
		doctors.POST("", admin, CreateDoctor)
		doctors.PUT("/:id", allow(models.RoleDoctor), UpdateDoctor)
		doctors.DELETE("/:id", admin, DeleteDoctor)
	}

	receptionists := api.Group("/receptionists")
	{
		receptionists.GET("", allow(), ListReceptionists)
		receptionists.GET("/:id", allow(), GetReceptionist)
		receptionists.POST("", admin, CreateReceptionist)
		receptionists.PUT("/:id", allow(models.RoleReceptionist), UpdateReceptionist)
		receptionists.DELETE("/:id", admin, DeleteReceptionist)
	}

	labTechs := api.Group("/lab-technicians")
	{
		labTechs.GET("", allow(), ListLabTechnicians)
		labTechs.GET("/:id", allow(), GetLabTechnician)
		labTechs.POST("", admin, CreateLabTechnician)
		labTechs.PUT("/:id", allow(models.RoleLabTechnician), UpdateLabTechnician)
		labTechs.DELETE("/:id", admin, DeleteLabTechnician)
	}

	patients := api.Group("/patients")
	{
		patients.GET("", allow(staff...), ListPatients)
		patients.GET("/page", allow(staff...), GetPatientsWithPage)
		patients.GET("/:id", allow(append(staff, models.RolePatient)...), GetPatient)
		patients.POST("", allow(models.RoleReceptionist), CreatePatient)
		patients.PUT("/:id", allow(models.RoleReceptionist, models.RolePatient), UpdatePatient)
		patients.DELETE("/:id", allow(models.RoleReceptionist), DeletePatient)
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", allow(), ListAppointments)
		appointments.GET("/available-slots", allow(), AvailableSlots)
		appointments.GET("/conflicts", allow(staff...), ListConflicts)
		appointments.GET("/:id", allow(), GetAppointment)
		appointments.POST("", allow(models.RoleReceptionist, models.RolePatient, models.RoleDoctor), CreateAppointment)
		appointments.PUT("/:id", allow(models.RoleReceptionist, models.RolePatient, models.RoleDoctor), UpdateAppointment)
		appointments.DELETE("/:id", allow(models.RoleReceptionist, models.RolePatient), DeleteAppointment)
	}

	tests := api.Group("/tests")
	{
		tests.GET("", allow(), ListTests)
		tests.GET("/:id", allow(), GetTest)
		tests.POST("", allow(models.RoleDoctor, models.RoleLabTechnician), CreateTest)
		tests.PUT("/:id", allow(models.RoleDoctor, models.RoleLabTechnician), UpdateTest)
		tests.DELETE("/:id", allow(models.RoleDoctor), DeleteTest)
	}

	prescriptions := api.Group("/prescriptions")
	{
		prescriptions.GET("", allow(), ListPrescriptions)
		prescriptions.GET("/:id", allow(), GetPrescription)
		prescriptions.POST("", allow(models.RoleDoctor), CreatePrescription)
		prescriptions.PUT("/:id", allow(models.RoleDoctor), UpdatePrescription)
		prescriptions.DELETE("/:id", allow(models.RoleDoctor), DeletePrescription)
	}

	reports := api.Group("/reports")
	{
		reports.GET("", allow(), ListReports)
		reports.GET("/:id", allow(), GetReport)
		reports.POST("", allow(models.RoleDoctor, models.RoleLabTechnician), CreateReport)
		reports.PUT("/:id", allow(models.RoleDoctor, models.RoleLabTechnician), UpdateReport)
		reports.DELETE("/:id", allow(models.RoleDoctor), DeleteReport)
	}

	r.GET("/admin", AdminPage)
	r.NoRoute(ServeClient)

	return r
}

// Health reports whether the database answers.
func Health(c *gin.Context) {
	sqlDB, err := database.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
