package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/medialibertaire/media-libertaire-api/api"
	"github.com/medialibertaire/media-libertaire-api/api/scheduler"
	"github.com/medialibertaire/media-libertaire-api/config"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	hub := NewHub()
	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	art := Article{ADB: databases.NewArticleDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	com := Comment{CDB: databases.NewCommentDatabase(a.dbHelper), ADB: databases.NewArticleDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	rep := Report{RDB: databases.NewReportDatabase(a.dbHelper), ADB: databases.NewArticleDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper), Hub: hub}
	don := Donation{BaseURL: a.Config.BaseURL}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// live moderation events for moderator views
	r.HandleFunc("/ws/moderation", hub.ServeWS)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("GET")
	apiCreate.Handle("/user/request-password-reset", http.HandlerFunc(u.RequestPasswordResetHandler)).Methods("POST")
	apiCreate.Handle("/user/reset-password", http.HandlerFunc(u.ResetPasswordHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", http.HandlerFunc(u.UserHandler)).Methods("GET")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UpdateUserByIDHandler))).Methods("PUT")

	apiCreate.Handle("/article", api.Middleware(http.HandlerFunc(art.CreateArticleHandler))).Methods("POST")
	apiCreate.Handle("/article/{article_id}", http.HandlerFunc(art.ArticleByIDHandler)).Methods("GET")
	apiCreate.Handle("/article/{article_id}", api.Middleware(http.HandlerFunc(art.UpdateArticleHandler))).Methods("PUT")
	apiCreate.Handle("/article/{article_id}", api.Middleware(http.HandlerFunc(art.DeleteArticleHandler))).Methods("DELETE")
	apiCreate.Handle("/article/{article_id}/vote", api.Middleware(http.HandlerFunc(art.VoteArticleHandler))).Methods("POST")
	apiCreate.Handle("/article/{article_id}/comment", api.Middleware(http.HandlerFunc(com.CreateCommentHandler))).Methods("POST")
	apiCreate.Handle("/article/{article_id}/comments", http.HandlerFunc(com.CommentsByArticleIDHandler)).Methods("GET")
	apiCreate.Handle("/articles", http.HandlerFunc(art.ArticlesHandler)).Methods("GET")
	apiCreate.Handle("/articles/search", http.HandlerFunc(art.ArticleSearchHandler)).Methods("GET")
	apiCreate.Handle("/articles/user/{user_id}", http.HandlerFunc(art.ArticlesByUserIDHandler)).Methods("GET")

	apiCreate.Handle("/comment/{comment_id}", api.Middleware(http.HandlerFunc(com.DeleteCommentHandler))).Methods("DELETE")

	apiCreate.Handle("/report", api.Middleware(http.HandlerFunc(rep.CreateReportHandler))).Methods("POST")
	apiCreate.Handle("/report/{report_id}/vote", api.Middleware(http.HandlerFunc(rep.CastVoteHandler))).Methods("POST")
	apiCreate.Handle("/reports", api.Middleware(http.HandlerFunc(rep.PendingReportsHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/donation/create-checkout-session", http.HandlerFunc(don.CreateCheckoutSessionHandler)).Methods("POST")
	apiCreate.Handle("/success", http.HandlerFunc(don.HandleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/cancel", http.HandlerFunc(don.HandleCancelRedirect)).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("media-libertaire-api has connected to the database")

	// initialize stripe
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = stripeKey

	// initialize api router
	a.initializeRoutes()

	// start the moderation reconciler
	a.Scheduler = scheduler.NewScheduler(
		databases.NewReportDatabase(a.dbHelper),
		databases.NewArticleDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// getLimit reads the limit query param, falling back to def
func getLimit(r *http.Request, def int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		zap.S().Debugf("limit not set, using default of %v", def)
		return def
	}
	return limit
}

// getPage reads the zero-based page query param
func getPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}
