package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/medialibertaire/media-libertaire-api/databases"
	"github.com/medialibertaire/media-libertaire-api/logging"
	"github.com/medialibertaire/media-libertaire-api/models"
)

const reconcileTimeout = 30 * time.Second

// Scheduler handles periodic background jobs for the moderation workflow
type Scheduler struct {
	cron *cron.Cron
	RDB  databases.ReportDatabase
	ADB  databases.ArticleDatabase
	log  *zap.SugaredLogger
}

// NewScheduler creates a new scheduler instance
func NewScheduler(rDB databases.ReportDatabase, aDB databases.ArticleDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		RDB:  rDB,
		ADB:  aDB,
		log:  logging.New(),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep for pending reports whose tally already crossed quorum but whose
	// resolution writes did not complete, e.g. a crash between hiding the
	// content and closing the report
	_, err := s.cron.AddFunc("@every 5m", s.ReconcileQuorumReports)
	if err != nil {
		s.log.Errorw("failed to register quorum reconcile job", "error", err)
	}

	s.cron.Start()
	s.log.Info("moderation scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("moderation scheduler stopped")
}

// ReconcileQuorumReports finds pending reports already at quorum and replays
// the resolution writes so the system converges even after partial failures
func (s *Scheduler) ReconcileQuorumReports() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	filter := bson.M{
		"status": models.ReportStatusPending,
		"$expr": bson.M{
			"$and": bson.A{
				bson.M{"$gte": bson.A{bson.M{"$size": "$votes.hide"}, models.HideQuorum}},
				bson.M{"$gt": bson.A{bson.M{"$size": "$votes.hide"}, bson.M{"$size": "$votes.keep"}}},
			},
		},
	}

	reports, err := s.RDB.Find(ctx, filter)
	if err != nil {
		s.log.Errorw("failed to find quorum reports to reconcile", "error", err)
		return
	}
	if len(reports) == 0 {
		return
	}

	s.log.Infow("reconciling reports stuck at quorum", "count", len(reports))

	for _, report := range reports {
		if err := s.resolveReport(ctx, report); err != nil {
			s.log.Errorw("failed to reconcile report", "report", report.ID.Hex(), "error", err)
			continue
		}
		s.log.Infow("reconciled report", "report", report.ID.Hex(), "content", report.ContentID)
	}
}

// resolveReport replays the same ordered writes the vote handler performs:
// hide the content first, then close the report. Both writes are idempotent
// so replaying a half-finished resolution is safe.
func (s *Scheduler) resolveReport(ctx context.Context, report models.Report) error {
	contentID, err := primitive.ObjectIDFromHex(report.ContentID)
	if err != nil {
		return err
	}

	if _, err := s.ADB.UpdateOne(ctx,
		bson.M{"_id": contentID},
		bson.M{"$set": bson.M{"isHidden": true}},
	); err != nil {
		return err
	}

	_, err = s.RDB.UpdateOne(ctx,
		bson.M{"_id": report.ID, "status": models.ReportStatusPending},
		bson.M{"$set": bson.M{
			"status":     models.ReportStatusResolved,
			"resolvedAt": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	return err
}
