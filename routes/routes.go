package routes

import (
	"nazigi-sms/config"
	conductorController "nazigi-sms/controllers/conductor"
	smsController "nazigi-sms/controllers/sms"
	httpServices "nazigi-sms/httpServices/africastalking"
	"nazigi-sms/logger"
	"nazigi-sms/middleware"
	passengerStore "nazigi-sms/services/passenger"
	smsService "nazigi-sms/services/sms"
	"nazigi-sms/services/stops"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const landingHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Nazigi Stamford Bus SMS Service</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
        }
        .container {
            background: white;
            padding: 40px;
            border-radius: 10px;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
            text-align: center;
        }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; margin-bottom: 30px; }
        .btn {
            display: inline-block;
            padding: 15px 30px;
            background: #667eea;
            color: white;
            text-decoration: none;
            border-radius: 5px;
            font-weight: bold;
        }
        .btn:hover { background: #764ba2; }
    </style>
</head>
<body>
    <div class="container">
        <h1>🚌 Nazigi Stamford Bus SMS Service</h1>
        <p>Welcome to the conductor control panel</p>
        <a href="/conductor/dashboard" class="btn">Access Dashboard</a>
    </div>
</body>
</html>`

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	atClient := httpServices.NewClient(cfg.ATBaseURL, cfg.ATUsername, cfg.ATAPIKey)
	asyncLogger := logger.NewAsyncLogger(db)
	gateway := smsService.NewGateway(db, atClient, cfg.ATSenderID)
	passengers := passengerStore.NewStore(db)
	catalog := stops.NewCatalog(cfg.BusStops)

	smsCtrl := smsController.NewSMSController(db, asyncLogger, cfg, catalog, gateway, passengers)
	conductorCtrl := conductorController.NewConductorController(db, asyncLogger, cfg, catalog, gateway, passengers)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Content security policy for the inline dashboard scripts
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		c.Set("Content-Security-Policy", "script-src 'self' 'unsafe-inline';")
		return err
	})

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(landingHTML)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/api", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"service": cfg.ServiceName,
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"sms_callback":        "/sms/callback",
				"conductor_dashboard": "/conductor/dashboard",
				"send_message":        "/conductor/send-message",
				"get_passengers":      "/conductor/passengers",
				"get_responses":       "/conductor/responses",
			},
		})
	})

	/*=============================================================================
	| Provider webhook
	===============================================================================*/
	app.Get("/sms/callback", smsCtrl.Callback)
	app.Post("/sms/callback", smsCtrl.Callback)

	/*=============================================================================
	| Conductor Routes (basic auth)
	===============================================================================*/
	conductor := app.Group("/conductor", middleware.ConductorAuth(cfg.ConductorUsername, cfg.ConductorPassword))
	conductor.Post("/send-message", conductorCtrl.SendMessage)
	conductor.Post("/send-custom", conductorCtrl.SendCustom)
	conductor.Get("/passengers", conductorCtrl.GetPassengers)
	conductor.Get("/responses", conductorCtrl.GetResponses)
	conductor.Get("/messages", conductorCtrl.GetMessages)
	conductor.Get("/api/stats", conductorCtrl.GetStats)
	conductor.Get("/dashboard", conductorCtrl.Dashboard)
}
