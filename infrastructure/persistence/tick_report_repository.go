package persistence

import (
	"context"
	"sync"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	reportDatabase   = "content_scheduler"
	reportCollection = "tick_reports"
	// memoryReports bounds the in-process history kept when Mongo is unavailable.
	memoryReports = 50
)

type tickReportRepository struct {
	mongoDb *mongo.Client

	mu     sync.Mutex
	recent []model.TickReport
}

// NewTickReportRepository stores run reports in Mongo, or in memory when db is nil.
func NewTickReportRepository(db *mongo.Client) repository.ITickReport {
	return &tickReportRepository{mongoDb: db}
}

func (r *tickReportRepository) SaveTickReport(ctx context.Context, report *model.TickReport) error {
	if r.mongoDb == nil {
		r.mu.Lock()
		r.recent = append([]model.TickReport{*report}, r.recent...)
		if len(r.recent) > memoryReports {
			r.recent = r.recent[:memoryReports]
		}
		r.mu.Unlock()
		return nil
	}
	_, err := r.collection().InsertOne(ctx, report)
	return err
}

func (r *tickReportRepository) ListTickReports(ctx context.Context, limit int) ([]model.TickReport, error) {
	if limit <= 0 {
		limit = 20
	}
	if r.mongoDb == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		n := min(limit, len(r.recent))
		out := make([]model.TickReport, n)
		copy(out, r.recent[:n])
		return out, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var reports []model.TickReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *tickReportRepository) collection() *mongo.Collection {
	return r.mongoDb.Database(reportDatabase).Collection(reportCollection)
}
