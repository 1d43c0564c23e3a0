// Package docs Média Libertaire API.
//
// Documentation of the Média Libertaire community publishing API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://api.medialibertaire.org
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/medialibertaire/media-libertaire-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/report reports createReportID
// Files a new report against a piece of content.
// responses:
//   201: reportResponse

// A report in its pending state with empty vote sets.
// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.Report
}

// swagger:route POST /api/v1/report/{report_id}/vote reports castVoteID
// Casts or switches a hide/keep vote on a pending report.
// responses:
//   200: reportResponse

// swagger:route GET /api/v1/reports reports listPendingReportsID
// Lists pending reports, newest first.
// responses:
//   200: reportsResponse

// The list of pending reports.
// swagger:response reportsResponse
type reportsResponseWrapper struct {
	// in:body
	Body []models.Report
}

// swagger:route GET /api/v1/articles articles listArticlesID
// Lists visible articles with pagination, sorting and tag filters.
// responses:
//   200: articlesResponse

// The list of visible articles.
// swagger:response articlesResponse
type articlesResponseWrapper struct {
	// in:body
	Body []models.Article
}

// swagger:route GET /api/v1/article/{article_id} articles articleByIDID
// Fetches one article by id, hidden or not.
// responses:
//   200: articleResponse

// A single article.
// swagger:response articleResponse
type articleResponseWrapper struct {
	// in:body
	Body models.Article
}

// swagger:route GET /api/v1/user/{user_id} users userByIDID
// Fetches a user's public profile.
// responses:
//   200: profileResponse

// The externally visible part of a user account.
// swagger:response profileResponse
type profileResponseWrapper struct {
	// in:body
	Body models.PublicProfile
}

// Generic error payload returned by every endpoint.
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
