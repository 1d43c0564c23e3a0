package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/medialibertaire/media-libertaire-api/api"
	"github.com/medialibertaire/media-libertaire-api/config"
	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/models"
)

// voteRetryAttempts bounds the optimistic retry loop when concurrent voters
// race on the same report
const voteRetryAttempts = 3

// Report handles report intake, vote tallying and quorum resolution
type Report struct {
	RDB databases.ReportDatabase
	ADB databases.ArticleDatabase
	UDB databases.UserDatabase
	Hub *Hub
}

type createReportRequest struct {
	ContentID   string `json:"contentId"`
	ContentType string `json:"contentType"`
	Reason      string `json:"reason"`
}

type castVoteRequest struct {
	Choice models.VoteChoice `json:"choice"`
}

// CreateReportHandler files a new pending report against a piece of content
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	voter, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		config.ErrorStatus("report reason is required", http.StatusBadRequest, w, fmt.Errorf("empty reason"))
		return
	}
	if req.ContentID == "" {
		config.ErrorStatus("content id is required", http.StatusBadRequest, w, fmt.Errorf("empty content id"))
		return
	}
	if req.ContentType != models.ContentTypeArticle && req.ContentType != models.ContentTypeComment {
		config.ErrorStatus("unknown content type", http.StatusBadRequest, w, fmt.Errorf("content type %q", req.ContentType))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	reporterName := "Anonyme"
	if uid, err := primitive.ObjectIDFromHex(voter.ID); err == nil {
		if user, err := re.UDB.FindOne(ctx, bson.M{"_id": uid}); err == nil && user.DisplayName != "" {
			reporterName = user.DisplayName
		}
	}

	report := models.Report{
		ID:           primitive.NewObjectID(),
		ContentID:    req.ContentID,
		ContentType:  req.ContentType,
		ReporterID:   voter.ID,
		ReporterName: reporterName,
		Reason:       req.Reason,
		CreatedAt:    primitive.NewDateTimeFromTime(time.Now()),
		Status:       models.ReportStatusPending,
		Votes:        models.NewReportVotes(),
	}

	if _, err := re.RDB.InsertOne(ctx, report); err != nil {
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	re.Hub.Broadcast(EventReportFiled, report)

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CastVoteHandler records one user's hide/keep position on a pending report
// and runs the quorum check against the post-write tally
func (re Report) CastVoteHandler(w http.ResponseWriter, r *http.Request) {
	voter, ok := api.AuthUserFromContext(r.Context())
	if !ok {
		config.ErrorStatus("authentication required", http.StatusUnauthorized, w, fmt.Errorf("no authenticated user"))
		return
	}

	reportID := mux.Vars(r)["report_id"]
	rid, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !req.Choice.Valid() {
		config.ErrorStatus("invalid vote choice", http.StatusBadRequest, w, fmt.Errorf("choice %q", req.Choice))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// Compare-and-set on the prior vote sets serializes concurrent voters on
	// the same report; a lost race re-reads and retries.
	for attempt := 0; attempt < voteRetryAttempts; attempt++ {
		report, err := re.RDB.FindOne(ctx, bson.M{"_id": rid})
		if err != nil {
			config.ErrorStatus("report not found", http.StatusNotFound, w, err)
			return
		}
		if report.Status != models.ReportStatusPending {
			config.ErrorStatus("report is not pending", http.StatusConflict, w, fmt.Errorf("report status %q", report.Status))
			return
		}

		next := report.Votes.Apply(voter.ID, req.Choice)

		res, err := re.RDB.UpdateOne(ctx,
			bson.M{
				"_id":        rid,
				"status":     models.ReportStatusPending,
				"votes.hide": report.Votes.Hide,
				"votes.keep": report.Votes.Keep,
			},
			bson.M{"$set": bson.M{"votes": next}},
		)
		if err != nil {
			config.ErrorStatus("failed to record vote", http.StatusInternalServerError, w, err)
			return
		}
		if res.MatchedCount == 0 {
			continue
		}

		report.Votes = next

		// Quorum is evaluated against the tally that was just written, never
		// a pre-update snapshot.
		if next.HideWins() {
			if err := re.resolveReport(ctx, report); err != nil {
				config.ErrorStatus("failed to resolve report", http.StatusInternalServerError, w, err)
				return
			}
		}

		b, err := json.Marshal(report)
		if err != nil {
			config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(b)
		return
	}

	config.ErrorStatus("vote conflicted with concurrent updates", http.StatusConflict, w, fmt.Errorf("retries exhausted"))
}

// PendingReportsHandler lists pending reports, newest first
func (re Report) PendingReportsHandler(w http.ResponseWriter, r *http.Request) {
	limit := getLimit(r, 20)
	page := getPage(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := databases.PaginatedOpts(limit, page).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	dbResp, err := re.RDB.Find(ctx, bson.M{"status": models.ReportStatusPending}, opts)
	if err != nil {
		config.ErrorStatus("failed to get pending reports", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Report{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// resolveReport hides the flagged content and closes the report. The content
// write goes first: if it fails the report stays pending and the next vote or
// the reconciler retries the whole resolution, so re-running is safe.
func (re Report) resolveReport(ctx context.Context, report *models.Report) error {
	cid, err := primitive.ObjectIDFromHex(report.ContentID)
	if err != nil {
		return fmt.Errorf("invalid content id on report %s: %w", report.ID.Hex(), err)
	}

	if _, err := re.ADB.UpdateOne(ctx, bson.M{"_id": cid}, bson.M{"$set": bson.M{"isHidden": true}}); err != nil {
		return fmt.Errorf("failed to hide content %s: %w", report.ContentID, err)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	if _, err := re.RDB.UpdateOne(ctx,
		bson.M{"_id": report.ID, "status": models.ReportStatusPending},
		bson.M{"$set": bson.M{"status": models.ReportStatusResolved, "resolvedAt": now}},
	); err != nil {
		return fmt.Errorf("failed to close report %s: %w", report.ID.Hex(), err)
	}

	report.Status = models.ReportStatusResolved
	report.ResolvedAt = &now
	re.Hub.Broadcast(EventReportResolved, report)
	return nil
}
