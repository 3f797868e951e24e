package FiberConfig

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"Lulan/Biometrics"
	"Lulan/Catalog"
	"Lulan/Controllers"
	"Lulan/Notifications"
	"Lulan/Robot"
	"Lulan/Session"
	"Lulan/Store"
	"Lulan/middleware"
)

// Deps is everything the HTTP layer is wired to.
type Deps struct {
	Session  *Session.Manager
	Store    *Store.Store
	Robot    *Robot.Monitor
	Catalog  Catalog.Catalog
	Notifier Notifications.Notifier
	Verifier Biometrics.Verifier
	Secret   string
	Logging  middleware.LogConfig
}

func SetupRoutes(app *fiber.App, deps Deps) {
	authController := Controllers.NewAuthController(deps.Session, deps.Secret)
	taskController := Controllers.NewTaskController(deps.Store, deps.Catalog, deps.Notifier)
	profileController := Controllers.NewProfileController(deps.Store)
	biometricController := Controllers.NewBiometricController(
		deps.Store,
		Biometrics.NewEnroller(deps.Store),
		Biometrics.NewVoiceSession(deps.Store, deps.Verifier),
		deps.Robot,
	)
	rosterController := Controllers.NewRosterController(deps.Store)
	robotController := Controllers.NewRobotController(deps.Robot, deps.Store)
	logController := Controllers.NewLogController(deps.Logging.LogFilePath, deps.Store)

	verify := middleware.Verify(deps.Secret, deps.Session)

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signin", authController.SignIn)
	auth.Post("/signup", authController.SignUp)
	auth.Get("/google", authController.GoogleRedirect)
	auth.Get("/google/callback", authController.GoogleCallback)
	auth.Get("/state", authController.State)
	auth.Post("/signout", verify, authController.SignOut)
	auth.Delete("/account", verify, authController.DeleteAccount)

	api.Get("/catalog", taskController.GetCatalog)

	// Delivery queue
	tasks := api.Group("/tasks", verify)
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", taskController.CreateTask)
	tasks.Delete("/", taskController.ClearTasks)
	tasks.Get("/summary", taskController.Summary)
	tasks.Get("/export", taskController.Export)

	// Profile and settings
	api.Get("/profile", verify, profileController.GetProfile)
	api.Put("/profile", verify, profileController.UpdateProfile)
	api.Get("/flags", verify, profileController.GetFlags)
	api.Put("/flags/:flag", verify, profileController.SetFlag)

	// Biometrics, id routes before the index routes
	templates := api.Group("/templates", verify)
	templates.Get("/", biometricController.GetTemplates)
	templates.Post("/", biometricController.AddTemplate)
	templates.Put("/id/:id", biometricController.UpdateTemplateByID)
	templates.Delete("/id/:id", biometricController.DeleteTemplateByID)
	templates.Put("/:index", biometricController.UpdateTemplate)
	templates.Delete("/:index", biometricController.DeleteTemplate)
	api.Post("/face", verify, biometricController.CaptureFace)
	api.Delete("/face", verify, biometricController.DeleteFace)
	api.Post("/voice/command", verify, biometricController.VoiceCommand)

	// Roster, admin checks happen in the store
	roster := api.Group("/roster", verify)
	roster.Get("/", rosterController.GetRoster)
	roster.Post("/", rosterController.CreateRecord)
	roster.Put("/id/:id", rosterController.UpdateRecordByID)
	roster.Delete("/id/:id", rosterController.DeleteRecordByID)
	roster.Put("/:index", rosterController.UpdateRecord)
	roster.Delete("/:index", rosterController.DeleteRecord)

	// Robot
	robot := api.Group("/robot", verify)
	robot.Get("/status", robotController.GetStatus)
	robot.Post("/commands", robotController.SendCommand)

	// Request logs, admin only
	api.Get("/logs", verify, logController.GetLogs)
	api.Get("/logs/stats", verify, logController.GetLogStats)
}

// NewApp builds the configured fiber app.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 << 20,
	})
	app.Use(recover.New())
	app.Use(middleware.LoggingMiddleware(deps.Logging))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, deps)
	return app
}
