package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

// Deployer pushes the recommended schema of an audit record onto a live post.
type Deployer struct {
	publisher ports.SchemaPublisher
	logger    *slog.Logger
}

func NewDeployer(publisher ports.SchemaPublisher, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{publisher: publisher, logger: logger.With("component", "deploy")}
}

// Deploy publishes record's schema to postID.
func (d *Deployer) Deploy(ctx context.Context, record *domain.AuditRecord, postID int) error {
	if d.publisher == nil {
		return errors.New("schema publisher is not configured")
	}
	if record == nil || len(record.ProFeatures.RecommendedSchema) == 0 {
		return errors.New("audit record carries no recommended schema")
	}

	if err := d.publisher.PublishSchema(ctx, postID, record.ProFeatures.RecommendedSchema); err != nil {
		return fmt.Errorf("deploy schema for %s: %w", record.Metadata.URL, err)
	}
	d.logger.Info("schema deployed", "url", record.Metadata.URL, "post_id", postID)
	return nil
}
