package router

import (
	"net/http"

	authsvc "marketplace-backend/internal/application/auth"
	favsvc "marketplace-backend/internal/application/favorites"
	listsvc "marketplace-backend/internal/application/listings"
	locsvc "marketplace-backend/internal/application/location"
	msgsvc "marketplace-backend/internal/application/messages"
	reviewsvc "marketplace-backend/internal/application/reviews"
	usersvc "marketplace-backend/internal/application/user"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/infrastructure/geocoding"
	"marketplace-backend/internal/infrastructure/imagehost"
	"marketplace-backend/internal/infrastructure/store"
	authhandler "marketplace-backend/internal/interfaces/handlers/auth"
	favhandler "marketplace-backend/internal/interfaces/handlers/favorites"
	healthhandler "marketplace-backend/internal/interfaces/handlers/health"
	listhandler "marketplace-backend/internal/interfaces/handlers/listings"
	lochandler "marketplace-backend/internal/interfaces/handlers/location"
	msghandler "marketplace-backend/internal/interfaces/handlers/messages"
	reviewhandler "marketplace-backend/internal/interfaces/handlers/reviews"
	userhandler "marketplace-backend/internal/interfaces/handlers/user"
	"marketplace-backend/internal/middleware"
	"marketplace-backend/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
)

// bodyLimit leaves room for a 5 MiB image plus the multipart envelope.
const bodyLimit = 6 * 1024 * 1024

// Deps are the collaborators CreateApp wires into handlers. Store is
// required; the rest may be nil.
type Deps struct {
	Store    *store.Store
	Redis    *redis.Client
	Geocoder geocoding.Geocoder
	Images   imagehost.Host
	Metrics  *metrics.Metrics
}

// CreateApp builds the fiber app: middleware chain, /api route groups,
// health and metrics endpoints.
func CreateApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(cfg.IsProduction()),
		BodyLimit:               bodyLimit,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: []string{cfg.ClientURL}}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(deps.Redis))
	app.Use(middleware.Metrics(deps.Metrics))

	st := deps.Store
	tokens := &authsvc.TokenService{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTExpiresIn, Rdb: deps.Redis}
	requireAuth := middleware.RequireAuth(tokens)

	hh := &healthhandler.Handlers{Rdb: deps.Redis, DB: st, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	ah := &authhandler.Handlers{
		Service:    &authsvc.Service{Users: st.Users, Tokens: tokens, SaltRounds: cfg.SaltRounds, Metrics: deps.Metrics},
		Production: cfg.IsProduction(),
	}
	authGroup := api.Group("/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Post("/logout", ah.Logout)
	authGroup.Get("/current-user", requireAuth, ah.CurrentUser)

	uh := &userhandler.Handlers{Service: &usersvc.Service{
		Users: st.Users, Listings: st.Listings, Reviews: st.Reviews, Geocoder: deps.Geocoder,
	}}
	users := api.Group("/users")
	users.Get("/list", requireAuth, uh.List)
	users.Get("/profile", requireAuth, uh.Profile)
	users.Put("/profile", requireAuth, uh.UpdateProfile)
	users.Get("/purchases", requireAuth, uh.Purchases)
	users.Get("/sold-items", requireAuth, uh.SoldItems)
	users.Get("/profile/:userId", uh.PublicProfile)

	lh := &listhandler.Handlers{Service: &listsvc.Service{
		Listings:      st.Listings,
		Users:         st.Users,
		Conversations: st.Conversations,
		Geocoder:      deps.Geocoder,
		Images:        deps.Images,
		Metrics:       deps.Metrics,
	}}
	listings := api.Group("/listings")
	listings.Get("/", lh.Browse)
	listings.Get("/search", lh.Search)
	listings.Post("/", requireAuth, lh.Create)
	listings.Get("/:id/potential-buyers", requireAuth, lh.PotentialBuyers)
	listings.Put("/:id/sold", requireAuth, lh.MarkSold)
	listings.Get("/:id", lh.Get)
	listings.Put("/:id", requireAuth, lh.Update)
	listings.Delete("/:id", requireAuth, lh.Delete)

	mh := &msghandler.Handlers{Service: &msgsvc.Service{
		Conversations: st.Conversations,
		Messages:      st.Messages,
		Listings:      st.Listings,
		Users:         st.Users,
		Metrics:       deps.Metrics,
	}}
	msgs := api.Group("/messages", requireAuth)
	msgs.Get("/conversations", mh.Conversations)
	msgs.Get("/conversations/:conversationId", mh.Thread)
	msgs.Post("/from-listing", mh.FromListing)
	msgs.Post("/reply/:conversationId", mh.Reply)
	msgs.Post("/offer", mh.Offer)
	msgs.Post("/respond-offer/:messageId", mh.RespondOffer)

	rh := &reviewhandler.Handlers{Service: &reviewsvc.Service{
		Reviews: st.Reviews, Listings: st.Listings, Users: st.Users, Metrics: deps.Metrics,
	}}
	reviews := api.Group("/reviews")
	reviews.Post("/", requireAuth, rh.Create)
	reviews.Get("/user/:userId", rh.ForUser)

	fh := &favhandler.Handlers{Service: &favsvc.Service{Favorites: st.Favorites, Listings: st.Listings, Users: st.Users}}
	favs := api.Group("/favorites", requireAuth)
	favs.Get("/ids", fh.IDs)
	favs.Get("/", fh.List)
	favs.Post("/", fh.Add)
	favs.Delete("/:listingId", fh.Remove)

	loc := &lochandler.Handlers{Service: &locsvc.Service{Geocoder: deps.Geocoder}}
	api.Get("/location/zip-from-coords", loc.ZipFromCoords)

	app.Use(middleware.NotFound)
	return app
}

// Handler exposes app as a net/http handler.
func Handler(app *fiber.App) http.HandlerFunc {
	return adaptor.FiberApp(app)
}
