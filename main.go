package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Lulan/Biometrics"
	"Lulan/Catalog"
	"Lulan/Config"
	"Lulan/CronJobs"
	"Lulan/Directory"
	"Lulan/FiberConfig"
	"Lulan/Models"
	"Lulan/Notifications"
	"Lulan/Robot"
	"Lulan/Session"
	"Lulan/Store"
	"Lulan/middleware"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if cfg.LogFile != "" {
		setupLogging(cfg.LogFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dir Directory.Directory
	notifiers := Notifications.Fanout{Notifications.Log{}}
	switch cfg.Directory {
	case Config.DirectoryFirebase:
		fb, err := Directory.NewFirebase(ctx, Directory.FirebaseConfig{
			CredentialsFile: cfg.FirebaseCredentials,
			ProjectID:       cfg.FirebaseProjectID,
			APIKey:          cfg.FirebaseAPIKey,
		})
		if err != nil {
			log.Fatal("Failed to initialize Firebase: ", err)
		}
		defer fb.Close()
		dir = fb

		fcm, err := Notifications.NewFCM(ctx, fb.App, cfg.NotifyTopic)
		if err != nil {
			log.Printf("Push notifications disabled: %v", err)
		} else {
			notifiers[0] = fcm
		}
	default:
		log.Println("Using in-memory directory")
		dir = Directory.NewMemory()
	}

	if cfg.SlackEnabled() {
		notifiers = append(notifiers, Notifications.NewSlack(cfg.SlackBotToken, cfg.SlackChannel))
	}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, Notifications.NewEmail(Notifications.EmailConfig{
			SMTPServer: cfg.SMTPServer,
			SMTPPort:   cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			FromEmail:  cfg.SMTPFrom,
			FromName:   "Lulan",
			TLSEnabled: cfg.SMTPTLS,
			To:         cfg.AlertEmails,
		}))
	}

	db, err := Models.Connect(cfg.LocalDB)
	if err != nil {
		log.Fatal("Failed to open local database: ", err)
	}

	catalog, err := Catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Fatal(err)
	}

	store := Store.New(dir)
	if err := store.Start(ctx); err != nil {
		log.Fatal("Failed to attach listeners: ", err)
	}
	defer store.Close()
	if cfg.SeedDemoTasks {
		if err := store.SeedTasks(ctx, Models.DemoTasks()); err != nil {
			log.Printf("Error seeding demo tasks: %v", err)
		}
	}

	var opts []Session.Option
	if cfg.GoogleEnabled() {
		opts = append(opts, Session.WithGoogle(Session.GoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)))
	}
	manager := Session.NewManager(dir, Models.NewPreferences(db), store, store, opts...)
	log.Printf("Starting with %s graph", manager.InitialGraph())

	monitor := Robot.NewMonitor(dir, cfg.RobotID)
	if err := monitor.Start(ctx); err != nil {
		log.Fatal("Failed to watch robot: ", err)
	}
	defer monitor.Close()

	heartbeat := CronJobs.NewHeartbeatChecker(monitor, cfg.HeartbeatSchedule)
	if err := heartbeat.Start(); err != nil {
		log.Fatal(err)
	}
	defer heartbeat.Stop()

	logging := middleware.DefaultLogConfig()
	logging.LogFilePath = cfg.RequestLog

	app := FiberConfig.NewApp(FiberConfig.Deps{
		Session:  manager,
		Store:    store,
		Robot:    monitor,
		Catalog:  catalog,
		Notifier: notifiers,
		Verifier: Biometrics.NewSimulatedVerifier(Biometrics.DefaultSuccessRate, 0),
		Secret:   cfg.JWTSecret,
		Logging:  logging,
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down: %v", err)
		}
	}()

	log.Println("Server Up...")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

func setupLogging(path string) {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
