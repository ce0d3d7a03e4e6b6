package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/model"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GigFilter selects which projections List returns
type GigFilter string

const (
	FilterAll       GigFilter = "all"
	FilterOpen      GigFilter = "open"
	FilterMerged    GigFilter = "merged"
	FilterCancelled GigFilter = "cancelled"
)

// GigCounts summarize the projection table for the dashboard header
type GigCounts struct {
	Total     int64 `json:"total"`
	Open      int64 `json:"open"`
	Merged    int64 `json:"merged"`
	Cancelled int64 `json:"cancelled"`
}

// Store materializes contract events into a queryable gig table. Upserts are
// retried with backoff, losing an event would leave a stale projection until
// the gig is touched again.
type Store struct {
	*task.Task

	db      *gorm.DB
	input   chan Event
	monitor *monitor_escrow.Monitor
}

func NewStore(config *config.Config, db *gorm.DB, input chan Event) (self *Store) {
	self = new(Store)
	self.db = db
	self.input = input

	self.Task = task.NewTask(config, "store").
		WithOnBeforeStart(self.migrate).
		WithSubtaskFunc(self.run)

	return
}

func (self *Store) WithMonitor(monitor *monitor_escrow.Monitor) *Store {
	self.monitor = monitor
	return self
}

func (self *Store) migrate() (err error) {
	return self.db.AutoMigrate(&model.Gig{})
}

func (self *Store) run() (err error) {
	for event := range self.input {
		self.apply(event)
	}
	return nil
}

func (self *Store) apply(event Event) {
	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Store.MaxElapsedTime).
		WithMaxInterval(self.Config.Store.BackoffInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if errors.Is(err, context.Canceled) {
				return backoff.Permanent(err)
			}
			self.monitor.Report.Store.Errors.UpsertFailures.Add(1)
			self.Log.WithError(err).WithField("event", event.EventName()).
				Warn("Failed to apply event to the projection, retrying")
			return err
		}).
		Run(func() error { return self.applyOnce(event) })
	if err != nil {
		self.monitor.Report.Store.Errors.EventsDropped.Add(1)
		self.Log.WithError(err).WithField("event", event.EventName()).
			Error("Dropped event, projection may be stale")
		return
	}
	self.monitor.Report.Store.State.RecordsUpserted.Add(1)
}

func (self *Store) applyOnce(event Event) (err error) {
	switch event := event.(type) {
	case *GigCreatedEvent:
		return self.upsert(&model.Gig{
			Id:         event.GigId,
			Client:     event.Client,
			Freelancer: event.Freelancer,
			Amount:     event.Amount.String(),
			RepoOwner:  event.RepoOwner,
			RepoName:   event.RepoName,
			PrId:       event.PrId,
			IsOpen:     true,
			CreatedAt:  time.Now().Unix(),
			Status:     string(StatusLocked),
		})
	case *WorkVerificationRequestedEvent:
		return self.setStatus(event.GigId, StatusPending, true)
	case *WorkVerifiedEvent:
		if !event.IsMerged {
			// Request resolved without payout, gig is back to plain locked
			return self.setStatus(event.GigId, StatusLocked, true)
		}
		return nil
	case *PaymentReleasedEvent:
		return self.setStatus(event.GigId, StatusMerged, false)
	case *GigCancelledEvent:
		return self.setStatus(event.GigId, StatusCancelled, false)
	default:
		// GigFunded changes no projected column
		return nil
	}
}

func (self *Store) upsert(gig *model.Gig) (err error) {
	return self.db.WithContext(self.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(gig).
		Error
}

func (self *Store) setStatus(gigId uint64, status GigStatus, isOpen bool) (err error) {
	return self.db.WithContext(self.Ctx).
		Model(&model.Gig{}).
		Where("id = ?", gigId).
		Updates(map[string]interface{}{"status": string(status), "is_open": isOpen}).
		Error
}

// List returns projections matching the filter, newest first
func (self *Store) List(ctx context.Context, filter GigFilter) (gigs []*model.Gig, err error) {
	query := self.db.WithContext(ctx).Order("id desc")

	switch filter {
	case FilterOpen:
		query = query.Where("is_open = ?", true)
	case FilterMerged:
		query = query.Where("status = ?", string(StatusMerged))
	case FilterCancelled:
		query = query.Where("status = ?", string(StatusCancelled))
	case FilterAll, "":
		// No extra condition
	default:
		return nil, &ValidationError{Field: "filter", Reason: "unknown filter"}
	}

	err = query.Find(&gigs).Error
	return
}

func (self *Store) Counts(ctx context.Context) (counts GigCounts, err error) {
	gigs := func() *gorm.DB { return self.db.WithContext(ctx).Model(&model.Gig{}) }

	err = gigs().Count(&counts.Total).Error
	if err != nil {
		return
	}
	err = gigs().Where("is_open = ?", true).Count(&counts.Open).Error
	if err != nil {
		return
	}
	err = gigs().Where("status = ?", string(StatusMerged)).Count(&counts.Merged).Error
	if err != nil {
		return
	}
	err = gigs().Where("status = ?", string(StatusCancelled)).Count(&counts.Cancelled).Error
	return
}
