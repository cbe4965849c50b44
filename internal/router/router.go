// ===============================
// FILE: internal/router/router.go
// ===============================

package router

import (
	"campusmart/internal/config"
	"campusmart/internal/database"
	"campusmart/internal/handlers/api/v1/auth"
	"campusmart/internal/handlers/api/v1/comments"
	"campusmart/internal/handlers/api/v1/listings"
	"campusmart/internal/handlers/api/v1/messages"
	"campusmart/internal/handlers/api/v1/offers"
	"campusmart/internal/handlers/api/v1/users"
	"campusmart/internal/middleware"
	"campusmart/internal/repositories"
	"campusmart/internal/response"
	"campusmart/internal/services"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SetupRouter builds the HTTP handler tree for the marketplace API and
// wraps it in the shared middleware chain.
func SetupRouter(
	serviceCollection *services.ServiceCollection,
	db *database.Manager,
	repos *repositories.Collection,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	responseBuilder *response.Builder,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	authController := auth.NewAuthController(serviceCollection, logger, responseBuilder)
	userController := users.NewUserController(serviceCollection, logger, responseBuilder)
	listingController := listings.NewListingController(serviceCollection, logger, responseBuilder)
	offerController := offers.NewOfferController(serviceCollection, logger, responseBuilder)
	commentController := comments.NewCommentController(serviceCollection, logger, responseBuilder)
	messageController := messages.NewMessageController(serviceCollection, logger, responseBuilder)

	// ===============================
	// AUTH ENDPOINTS (No auth required)
	// ===============================

	mux.Handle("/api/v1/auth/register", createAPIHandler(methodHandler(http.MethodPost, authController.Register)))
	mux.Handle("/api/v1/auth/login", createAPIHandler(methodHandler(http.MethodPost, authController.Login)))

	// ===============================
	// USER ENDPOINTS
	// ===============================

	mux.Handle("/api/v1/users/profile", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			userController.GetProfile(w, r)
		case http.MethodPut:
			userController.UpdateProfile(w, r)
		default:
			response.QuickStatusResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}, authMiddleware))

	mux.Handle("/api/v1/users/liked-items", createAuthenticatedAPIHandler(
		methodHandler(http.MethodGet, userController.GetLikedItems), authMiddleware))

	// Dynamic user routes
	mux.HandleFunc("/api/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		// GET /api/v1/users/{id}
		case len(pathParts) == 4 && r.Method == http.MethodGet:
			createAPIHandler(userController.GetUserByID).ServeHTTP(w, r)

		// GET /api/v1/users/{id}/stats
		case len(pathParts) == 5 && pathParts[4] == "stats" && r.Method == http.MethodGet:
			createAPIHandler(userController.GetUserStats).ServeHTTP(w, r)

		// GET /api/v1/users/{id}/listings - public seller page
		case len(pathParts) == 5 && pathParts[4] == "listings" && r.Method == http.MethodGet:
			createOptionalAuthAPIHandler(listingController.GetUserListings, authMiddleware).ServeHTTP(w, r)

		default:
			response.QuickError(w, r, services.NewNotFoundError("endpoint not found"))
		}
	})

	// ===============================
	// LISTING ENDPOINTS
	// ===============================

	mux.Handle("/api/v1/listings", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// Anonymous browsing is allowed; a viewer token adds isLiked/isOwner flags.
			createOptionalAuthAPIHandler(listingController.SearchListings, authMiddleware).ServeHTTP(w, r)
		case http.MethodPost:
			createAuthenticatedAPIHandler(listingController.CreateListing, authMiddleware).ServeHTTP(w, r)
		default:
			response.QuickStatusResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}))

	mux.Handle("/api/v1/listings/my-listings", createAuthenticatedAPIHandler(
		methodHandler(http.MethodGet, listingController.GetMyListings), authMiddleware))

	mux.Handle("/api/v1/listings/trending-tags", createAPIHandler(
		methodHandler(http.MethodGet, listingController.GetTrendingTags)))

	mux.Handle("/api/v1/listings/categories", createAPIHandler(
		methodHandler(http.MethodGet, listingController.GetCategoryBreakdown)))

	mux.Handle("/api/v1/listings/stats", createAPIHandler(
		methodHandler(http.MethodGet, listingController.GetMarketplaceStats)))

	// Dynamic listing routes
	mux.HandleFunc("/api/v1/listings/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		// GET /api/v1/listings/{id} - anonymous views still count
		case len(pathParts) == 4 && r.Method == http.MethodGet:
			createOptionalAuthAPIHandler(listingController.GetListing, authMiddleware).ServeHTTP(w, r)

		// PUT /api/v1/listings/{id} - seller only (enforced in service)
		case len(pathParts) == 4 && r.Method == http.MethodPut:
			createAuthenticatedAPIHandler(listingController.UpdateListing, authMiddleware).ServeHTTP(w, r)

		// DELETE /api/v1/listings/{id} - seller only, cascades
		case len(pathParts) == 4 && r.Method == http.MethodDelete:
			createAuthenticatedAPIHandler(listingController.DeleteListing, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/listings/{id}/sold - mark sold
		case len(pathParts) == 5 && pathParts[4] == "sold" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(listingController.MarkSold, authMiddleware).ServeHTTP(w, r)

		// DELETE /api/v1/listings/{id}/sold - relist
		case len(pathParts) == 5 && pathParts[4] == "sold" && r.Method == http.MethodDelete:
			createAuthenticatedAPIHandler(listingController.UnmarkSold, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/listings/{id}/like - idempotent like toggle
		case len(pathParts) == 5 && pathParts[4] == "like" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(listingController.ToggleLike, authMiddleware).ServeHTTP(w, r)

		// GET /api/v1/listings/{id}/offers - seller only
		case len(pathParts) == 5 && pathParts[4] == "offers" && r.Method == http.MethodGet:
			createAuthenticatedAPIHandler(offerController.GetOffersForItem, authMiddleware).ServeHTTP(w, r)

		// GET /api/v1/listings/{id}/comments
		case len(pathParts) == 5 && pathParts[4] == "comments" && r.Method == http.MethodGet:
			createOptionalAuthAPIHandler(commentController.GetCommentsByItem, authMiddleware).ServeHTTP(w, r)

		default:
			response.QuickError(w, r, services.NewNotFoundError("endpoint not found"))
		}
	})

	// ===============================
	// OFFER ENDPOINTS (All auth required)
	// ===============================

	mux.Handle("/api/v1/offers", createAuthenticatedAPIHandler(
		methodHandler(http.MethodPost, offerController.CreateOffer), authMiddleware))

	mux.Handle("/api/v1/offers/my-offers", createAuthenticatedAPIHandler(
		methodHandler(http.MethodGet, offerController.GetMyOffers), authMiddleware))

	// Dynamic offer routes
	mux.HandleFunc("/api/v1/offers/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		// GET /api/v1/offers/{id} - participants only
		case len(pathParts) == 4 && r.Method == http.MethodGet:
			createAuthenticatedAPIHandler(offerController.GetOffer, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/offers/{id}/respond - seller accept/reject/counter
		case len(pathParts) == 5 && pathParts[4] == "respond" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(offerController.RespondToOffer, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/offers/{id}/cancel - buyer only
		case len(pathParts) == 5 && pathParts[4] == "cancel" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(offerController.CancelOffer, authMiddleware).ServeHTTP(w, r)

		// GET /api/v1/offers/{id}/history - participants only
		case len(pathParts) == 5 && pathParts[4] == "history" && r.Method == http.MethodGet:
			createAuthenticatedAPIHandler(offerController.GetOfferHistory, authMiddleware).ServeHTTP(w, r)

		default:
			response.QuickError(w, r, services.NewNotFoundError("endpoint not found"))
		}
	})

	// ===============================
	// COMMENT ENDPOINTS (All auth required)
	// ===============================

	mux.Handle("/api/v1/comments", createAuthenticatedAPIHandler(
		methodHandler(http.MethodPost, commentController.CreateComment), authMiddleware))

	// Dynamic comment routes
	mux.HandleFunc("/api/v1/comments/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		// PUT /api/v1/comments/{id} - author only
		case len(pathParts) == 4 && r.Method == http.MethodPut:
			createAuthenticatedAPIHandler(commentController.EditComment, authMiddleware).ServeHTTP(w, r)

		// DELETE /api/v1/comments/{id} - author or listing seller
		case len(pathParts) == 4 && r.Method == http.MethodDelete:
			createAuthenticatedAPIHandler(commentController.DeleteComment, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/comments/{id}/like - idempotent like toggle
		case len(pathParts) == 5 && pathParts[4] == "like" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(commentController.ToggleLike, authMiddleware).ServeHTTP(w, r)

		default:
			response.QuickError(w, r, services.NewNotFoundError("endpoint not found"))
		}
	})

	// ===============================
	// MESSAGE ENDPOINTS (All auth required)
	// ===============================

	mux.Handle("/api/v1/messages", createAuthenticatedAPIHandler(
		methodHandler(http.MethodPost, messageController.SendMessage), authMiddleware))

	mux.Handle("/api/v1/messages/conversations", createAuthenticatedAPIHandler(
		methodHandler(http.MethodGet, messageController.ListConversations), authMiddleware))

	mux.Handle("/api/v1/messages/unread-count", createAuthenticatedAPIHandler(
		methodHandler(http.MethodGet, messageController.GetUnreadCount), authMiddleware))

	// Dynamic message routes
	mux.HandleFunc("/api/v1/messages/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

		switch {
		// GET /api/v1/messages/conversations/{userId} - reads mark as read
		case len(pathParts) == 5 && pathParts[3] == "conversations" && r.Method == http.MethodGet:
			createAuthenticatedAPIHandler(messageController.GetConversation, authMiddleware).ServeHTTP(w, r)

		// PUT /api/v1/messages/{id} - sender only edit
		case len(pathParts) == 4 && r.Method == http.MethodPut:
			createAuthenticatedAPIHandler(messageController.EditMessage, authMiddleware).ServeHTTP(w, r)

		// DELETE /api/v1/messages/{id} - sender only soft delete
		case len(pathParts) == 4 && r.Method == http.MethodDelete:
			createAuthenticatedAPIHandler(messageController.DeleteMessage, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/messages/{id}/read - receiver only
		case len(pathParts) == 5 && pathParts[4] == "read" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(messageController.MarkRead, authMiddleware).ServeHTTP(w, r)

		// POST /api/v1/messages/{id}/delivered - receiver only
		case len(pathParts) == 5 && pathParts[4] == "delivered" && r.Method == http.MethodPost:
			createAuthenticatedAPIHandler(messageController.MarkDelivered, authMiddleware).ServeHTTP(w, r)

		default:
			response.QuickError(w, r, services.NewNotFoundError("endpoint not found"))
		}
	})

	// ===============================
	// HEALTH ENDPOINTS
	// ===============================

	healthHandler := createAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			response.QuickStatusResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		ctx := r.Context()
		dbHealth := db.Health(ctx)

		status := dbHealth.Status
		servicesHealth := repos.HealthCheck(ctx)
		servicesHealth["database"] = dbHealth

		responseBuilder.WriteHealthCheck(w, r, &response.HealthStatus{
			Status:      status,
			Timestamp:   time.Now().Unix(),
			Environment: cfg.Server.Environment,
			Services:    servicesHealth,
		})
	})
	mux.Handle("/health", healthHandler)
	mux.Handle("/api/v1/health", healthHandler)

	logger.Info("API routes registered",
		zap.String("base_path", "/api/v1"),
		zap.Bool("rate_limiting", true),
		zap.Int("cors_origins", len(cfg.Security.CORSAllowedOrigins)),
	)

	// Outermost first: request ID before logging, recovery inside
	// logging so panics still produce a completion record.
	chain := middleware.Chain(
		middleware.RequestID(logger),
		middleware.RequestLogging(),
		middleware.Recovery(logger),
		middleware.Security(&cfg.Security),
		rateLimiter.Limit(),
		response.Middleware(responseBuilder),
	)

	return chain(mux)
}

// ===============================
// HELPER FUNCTIONS
// ===============================

// createAPIHandler wraps a handler func for JSON API endpoints.
func createAPIHandler(handlerFunc http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handlerFunc(w, r)
	})
}

// createAuthenticatedAPIHandler wraps a handler func with mandatory
// bearer-token authentication.
func createAuthenticatedAPIHandler(handlerFunc http.HandlerFunc, authMiddleware *middleware.AuthMiddleware) http.Handler {
	return authMiddleware.RequireAuth()(createAPIHandler(handlerFunc))
}

// createOptionalAuthAPIHandler authenticates when a token is present but
// lets anonymous requests through.
func createOptionalAuthAPIHandler(handlerFunc http.HandlerFunc, authMiddleware *middleware.AuthMiddleware) http.Handler {
	return authMiddleware.OptionalAuth()(createAPIHandler(handlerFunc))
}

// methodHandler restricts a handler func to a single HTTP method.
func methodHandler(method string, handlerFunc http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			response.QuickStatusResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		handlerFunc(w, r)
	}
}
