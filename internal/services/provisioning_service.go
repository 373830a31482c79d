package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/umit144/subscriber-provisioner/internal/aka"
	"github.com/umit144/subscriber-provisioner/internal/models"
)

type Strategy string

const (
	StrategyDeleteInsert Strategy = "delete-insert"
	StrategyUpsert       Strategy = "upsert"
)

// SubscriberStore is the document collection holding subscriber profiles.
type SubscriberStore interface {
	RemoveByIMSI(ctx context.Context, imsi string) (int64, error)
	Insert(ctx context.Context, sub models.Subscriber) (string, error)
	Upsert(ctx context.Context, sub models.Subscriber) (string, error)
	CountByIMSI(ctx context.Context, imsi string) (int64, error)
	FindByIMSI(ctx context.Context, imsi string) (*models.Subscriber, error)
}

// CredentialMirror is the relational copy of authentication credentials.
type CredentialMirror interface {
	DeleteByIMSI(ctx context.Context, imsi string) (int64, error)
	Insert(ctx context.Context, cred models.Credential) error
}

type Provisioner interface {
	RemoveByIdentifier(ctx context.Context, imsi string) (int64, error)
	Insert(ctx context.Context, sub models.Subscriber) (string, error)
	Verify(ctx context.Context, imsi string) (*models.Subscriber, error)
	Provision(ctx context.Context, sub models.Subscriber) (*ProvisionReport, error)
	Remove(ctx context.Context, imsi string) (int64, error)
}

// ProvisionReport carries what the operator sees after a run.
type ProvisionReport struct {
	IMSI         string
	Removed      int64
	InsertedID   string
	Count        int64
	Found        bool
	K            string
	OperatorKind models.OperatorKeyKind
	OperatorKey  string
	DefaultAPN   string
}

type provisioningService struct {
	store     SubscriberStore
	mirror    CredentialMirror
	publisher EventPublisher
	strategy  Strategy
	deriveOPc bool
}

// NewProvisioningService wires the store with the optional mirror and
// publisher; either may be nil.
func NewProvisioningService(
	store SubscriberStore,
	mirror CredentialMirror,
	publisher EventPublisher,
	strategy Strategy,
	deriveOPc bool,
) Provisioner {
	if strategy == "" {
		strategy = StrategyDeleteInsert
	}

	return &provisioningService{
		store:     store,
		mirror:    mirror,
		publisher: publisher,
		strategy:  strategy,
		deriveOPc: deriveOPc,
	}
}

func (s *provisioningService) RemoveByIdentifier(ctx context.Context, imsi string) (int64, error) {
	n, err := s.store.RemoveByIMSI(ctx, imsi)
	if err != nil {
		return 0, fmt.Errorf("removing subscriber %s: %w", imsi, err)
	}
	slog.Debug("subscriber documents removed", "imsi", imsi, "count", n)
	return n, nil
}

func (s *provisioningService) Insert(ctx context.Context, sub models.Subscriber) (string, error) {
	id, err := s.store.Insert(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("inserting subscriber %s: %w", sub.IMSI, err)
	}
	slog.Debug("subscriber document inserted", "imsi", sub.IMSI, "id", id)
	return id, nil
}

// Verify reads the record back. A missing record is reported as
// models.ErrNotFound, never as an empty record.
func (s *provisioningService) Verify(ctx context.Context, imsi string) (*models.Subscriber, error) {
	sub, err := s.store.FindByIMSI(ctx, imsi)
	if err != nil {
		return nil, fmt.Errorf("verifying subscriber %s: %w", imsi, err)
	}
	return sub, nil
}

// Provision writes the record and reads it back. Store failures abort the
// run; a record missing on read-back is returned as a report with Found
// unset so the caller can print it and exit non-zero.
func (s *provisioningService) Provision(ctx context.Context, sub models.Subscriber) (*ProvisionReport, error) {
	sub, err := s.prepare(sub)
	if err != nil {
		return nil, err
	}

	report := &ProvisionReport{IMSI: sub.IMSI}

	switch s.strategy {
	case StrategyUpsert:
		id, err := s.store.Upsert(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("upserting subscriber %s: %w", sub.IMSI, err)
		}
		report.InsertedID = id
	default:
		if report.Removed, err = s.RemoveByIdentifier(ctx, sub.IMSI); err != nil {
			return nil, err
		}
		if report.InsertedID, err = s.Insert(ctx, sub); err != nil {
			return nil, err
		}
	}

	if err := s.syncMirror(ctx, sub); err != nil {
		return nil, err
	}

	if report.Count, err = s.store.CountByIMSI(ctx, sub.IMSI); err != nil {
		return nil, fmt.Errorf("counting subscriber %s: %w", sub.IMSI, err)
	}
	if report.Count > 1 {
		return nil, fmt.Errorf("subscriber %s: %d documents after write: %w", sub.IMSI, report.Count, models.ErrDuplicateKey)
	}

	stored, err := s.Verify(ctx, sub.IMSI)
	switch {
	case errors.Is(err, models.ErrNotFound):
		slog.Error("subscriber not found after insertion", "imsi", sub.IMSI)
		return report, nil
	case err != nil:
		return nil, err
	}

	report.Found = true
	report.K = stored.Security.K
	report.OperatorKind = stored.Security.Operator.Kind
	report.OperatorKey = stored.Security.Operator.Value
	report.DefaultAPN = stored.DefaultAPN()

	slog.Info("subscriber provisioned",
		"imsi", sub.IMSI,
		"strategy", string(s.strategy),
		"removed", report.Removed,
		"count", report.Count,
	)
	s.publish(ctx, SubscriberEvent{IMSI: sub.IMSI, Event: EventProvisioned, Count: report.Count})

	return report, nil
}

// Remove deletes the subscriber from the store and, when configured, the
// credential mirror.
func (s *provisioningService) Remove(ctx context.Context, imsi string) (int64, error) {
	n, err := s.RemoveByIdentifier(ctx, imsi)
	if err != nil {
		return 0, err
	}
	if s.mirror != nil {
		if _, err := s.mirror.DeleteByIMSI(ctx, imsi); err != nil {
			return n, fmt.Errorf("removing credential %s: %w", imsi, err)
		}
	}

	slog.Info("subscriber removed", "imsi", imsi, "count", n)
	s.publish(ctx, SubscriberEvent{IMSI: imsi, Event: EventRemoved, Count: n})
	return n, nil
}

func (s *provisioningService) prepare(sub models.Subscriber) (models.Subscriber, error) {
	if s.deriveOPc && sub.Security.Operator.Kind == models.OperatorKeyOP {
		opc, err := aka.DeriveOPc(sub.Security.K, sub.Security.Operator.Value)
		if err != nil {
			return sub, fmt.Errorf("%w: %w", models.ErrInvalidRecord, err)
		}
		sub.Security.Operator = models.OPc(opc)
		slog.Debug("derived OPc from OP", "imsi", sub.IMSI)
	}

	if err := sub.Validate(); err != nil {
		return sub, err
	}
	return sub, nil
}

func (s *provisioningService) syncMirror(ctx context.Context, sub models.Subscriber) error {
	if s.mirror == nil {
		return nil
	}

	// The mirror only holds OPc; records kept with OP are derived here
	// without changing the stored document.
	if sub.Security.Operator.Kind == models.OperatorKeyOP {
		opc, err := aka.DeriveOPc(sub.Security.K, sub.Security.Operator.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrInvalidRecord, err)
		}
		sub.Security.Operator = models.OPc(opc)
	}

	cred, err := models.CredentialFromSubscriber(sub)
	if err != nil {
		return err
	}
	if _, err := s.mirror.DeleteByIMSI(ctx, sub.IMSI); err != nil {
		return fmt.Errorf("removing credential %s: %w", sub.IMSI, err)
	}
	if err := s.mirror.Insert(ctx, cred); err != nil {
		return fmt.Errorf("inserting credential %s: %w", sub.IMSI, err)
	}
	return nil
}

func (s *provisioningService) publish(ctx context.Context, event SubscriberEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("publishing subscriber event failed", "imsi", event.IMSI, "event", event.Event, "error", err)
	}
}
