// main.go
// Trailers Contremaîtres API - equipment catalog, per-trailer inventories,
// repair tracking and employee access control backed by Firestore.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobrie31/trailers-contremaitres/access"
	"github.com/jobrie31/trailers-contremaitres/auth"
	"github.com/jobrie31/trailers-contremaitres/catalog"
	"github.com/jobrie31/trailers-contremaitres/config"
	"github.com/jobrie31/trailers-contremaitres/db"
	"github.com/jobrie31/trailers-contremaitres/handlers"
	"github.com/jobrie31/trailers-contremaitres/inventory"
	"github.com/jobrie31/trailers-contremaitres/middleware"
	"github.com/jobrie31/trailers-contremaitres/repairs"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting Trailers Contremaîtres API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize JWT Manager and identity client
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	identity := auth.NewIdentityClient(cfg.Firebase.WebAPIKey)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize domain services
	catalogService := catalog.NewService(firestoreDB)
	inventoryService := inventory.NewService(firestoreDB)
	repairService := repairs.NewService(firestoreDB)
	accessService := access.NewService(firestoreDB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(firestoreDB, jwtManager, identity, accessService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	trailerHandler := handlers.NewTrailerHandler(firestoreDB, inventoryService)
	repairHandler := handlers.NewRepairHandler(repairService)
	adminHandler := handlers.NewAdminHandler(accessService)
	exportHandler := handlers.NewExportHandler(inventoryService)
	streamHandler := handlers.NewStreamHandler(firestoreDB)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/refresh", authHandler.RefreshToken)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, firestoreDB)
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}
	adminOnly := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(middleware.RequireAdmin(h)))
	}

	protected("GET /api/me", authHandler.Me)

	// Catalog (reads for everyone, writes admin only)
	protected("GET /api/catalog", catalogHandler.GetCatalog)
	adminOnly("POST /api/categories", catalogHandler.CreateCategorie)
	adminOnly("POST /api/categories/{id}/fields", catalogHandler.AddField)
	adminOnly("DELETE /api/categories/{id}/fields/{fieldId}", catalogHandler.RemoveField)
	adminOnly("PATCH /api/categories/{id}/color", catalogHandler.UpdateColor)
	adminOnly("PATCH /api/categories/{id}/icon", catalogHandler.UpdateIcon)
	adminOnly("DELETE /api/categories/{id}", catalogHandler.DeleteCategorie)
	adminOnly("POST /api/equipements", catalogHandler.CreateEquipement)
	adminOnly("PUT /api/equipements/{id}", catalogHandler.UpdateEquipement)
	adminOnly("DELETE /api/equipements/{id}", catalogHandler.DeleteEquipement)

	// Trailers and inventories
	protected("GET /api/trailers", trailerHandler.ListTrailers)
	adminOnly("POST /api/trailers", trailerHandler.CreateTrailer)
	adminOnly("PATCH /api/trailers/{id}", trailerHandler.RenameTrailer)
	adminOnly("DELETE /api/trailers/{id}", trailerHandler.DeleteTrailer)
	protected("POST /api/trailers/{id}/sync", trailerHandler.SyncCategories)
	protected("GET /api/trailers/{id}/inventory", trailerHandler.GetInventory)
	protected("POST /api/trailers/{id}/items", trailerHandler.AddItem)
	protected("PATCH /api/trailers/{id}/categories/{catId}/items/{itemId}", trailerHandler.AdjustItem)
	protected("DELETE /api/trailers/{id}/categories/{catId}/items/{itemId}", trailerHandler.DeleteItem)
	protected("DELETE /api/trailers/{id}/categories/{catId}", trailerHandler.RemoveCategorie)
	adminOnly("POST /api/trailers/{id}/transfers", trailerHandler.TransferItem)
	protected("GET /api/trailers/{id}/export", exportHandler.ExportInventory)

	// Repair tracker
	protected("GET /api/trailers/{id}/reparations", repairHandler.GetBoard)
	protected("POST /api/trailers/{id}/reparations", repairHandler.AddBroken)
	protected("POST /api/trailers/{id}/reparations/drop", repairHandler.DropBroken)
	protected("PATCH /api/trailers/{id}/reparations/{repId}/status", repairHandler.UpdateStatus)
	protected("DELETE /api/trailers/{id}/reparations/{repId}", repairHandler.DeleteRepair)

	// Live updates
	protected("GET /api/stream/catalog", streamHandler.StreamCatalog)
	protected("GET /api/trailers/{id}/stream", streamHandler.StreamTrailer)

	// Admin endpoints (admin only)
	adminOnly("GET /api/admin/employes", adminHandler.ListEmployes)
	adminOnly("POST /api/admin/employes", adminHandler.InviteEmploye)
	adminOnly("POST /api/admin/employes/{id}/reset-code", adminHandler.ResetActivationCode)
	adminOnly("PATCH /api/admin/employes/{id}/admin", adminHandler.SetAdmin)
	adminOnly("DELETE /api/admin/employes/{id}", adminHandler.DeleteEmploye)

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server. WriteTimeout stays unset: SSE connections outlive any
	// fixed deadline.
	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
