// Package store is the sole boundary between the visitor flows and the
// database. Every mutation bumps lastUpdated, enforces the legal status
// transitions and notifies live subscribers with a fresh snapshot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xelth-com/campusgate/internal/models"
)

// Patch is a partial visitor update. Nil fields are left untouched;
// Details is merged field-by-field into the stored additionalDetails
// rather than replacing it.
type Patch struct {
	Status       *models.Status
	CheckInTime  *string
	CheckOutTime *string
	Type         *string
	Details      *models.AdditionalDetails
}

// Store owns all visitor records and their live subscriptions
type Store struct {
	db *gorm.DB

	mu      sync.Mutex
	subs    map[int]chan []models.Visitor
	nextSub int
}

// New creates a Store on top of an open gorm connection
func New(db *gorm.DB) *Store {
	return &Store{
		db:   db,
		subs: make(map[int]chan []models.Visitor),
	}
}

// CreateVisitor registers a new pending record. The ID and the
// registration timestamp are assigned here, exactly once.
func (s *Store) CreateVisitor(ctx context.Context, v *models.Visitor) (string, error) {
	now := models.Timestamp()
	v.ID = uuid.NewString()
	v.Status = models.StatusPending
	v.RegistrationDate = now
	v.LastUpdated = now
	v.CheckInTime = nil
	v.CheckOutTime = nil
	if len(v.AdditionalRaw) == 0 {
		v.AdditionalRaw = []byte("{}")
	}

	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return "", classify(err)
	}
	s.notify(ctx)
	return v.ID, nil
}

// GetVisitor fetches one record by ID
func (s *Store) GetVisitor(ctx context.Context, id string) (*models.Visitor, error) {
	var v models.Visitor
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &v, nil
}

// UpdateVisitor applies a patch inside a transaction. The read, the
// details merge and the write happen under the same row so a racing
// check-out and details submission cannot clobber each other.
func (s *Store) UpdateVisitor(ctx context.Context, id string, patch Patch) (*models.Visitor, error) {
	var updated models.Visitor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Visitor
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			return err
		}

		if patch.Status != nil && *patch.Status != v.Status {
			if !models.CanTransition(v.Status, *patch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, v.Status, *patch.Status)
			}
			v.Status = *patch.Status
		}
		if patch.CheckInTime != nil {
			// checkInTime is set the first time a record enters In and
			// never cleared afterwards
			if v.CheckInTime == nil {
				v.CheckInTime = patch.CheckInTime
			}
		}
		if patch.CheckOutTime != nil {
			v.CheckOutTime = patch.CheckOutTime
		}
		if patch.Type != nil {
			v.Type = *patch.Type
		}
		if patch.Details != nil {
			if err := mergeDetails(&v, patch.Details); err != nil {
				return err
			}
		}
		v.LastUpdated = models.Timestamp()

		if err := tx.Save(&v).Error; err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIllegalTransition) {
			return nil, err
		}
		return nil, classify(err)
	}
	s.notify(ctx)
	return &updated, nil
}

// QueryVisitors is a one-shot fetch ordered by lastUpdated descending,
// the store's natural order.
func (s *Store) QueryVisitors(ctx context.Context) ([]models.Visitor, error) {
	var visitors []models.Visitor
	if err := s.db.WithContext(ctx).Order("last_updated desc").Find(&visitors).Error; err != nil {
		return nil, classify(err)
	}
	return visitors, nil
}

// FindByContact returns the record with an exact contactNumber match,
// most recent registrationDate winning when several exist. ErrNotFound
// when nobody with that number ever registered.
func (s *Store) FindByContact(ctx context.Context, contactNumber string) (*models.Visitor, error) {
	var v models.Visitor
	err := s.db.WithContext(ctx).
		Where("contact_number = ?", contactNumber).
		Order("registration_date desc").
		First(&v).Error
	if err != nil {
		return nil, classify(err)
	}
	return &v, nil
}

// QuickCheckIn records a repeat visit: the parent record gets a fresh
// checkInTime, merged details and In status, and an append-only
// VisitorLog entry captures the occurrence. This is the only path that
// may move a record back to In after Out; the log entry keeps checkout
// times of prior visits intact.
func (s *Store) QuickCheckIn(ctx context.Context, id string, details *models.AdditionalDetails, purpose string) (*models.Visitor, *models.VisitorLog, error) {
	now := models.Timestamp()
	var (
		updated models.Visitor
		entry   models.VisitorLog
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Visitor
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			return err
		}

		if details != nil {
			if err := mergeDetails(&v, details); err != nil {
				return err
			}
		}
		if purpose != "" {
			v.PurposeOfVisit = purpose
		}
		v.Status = models.StatusIn
		v.CheckInTime = &now
		v.Type = models.TypeQuickCheckIn
		v.LastUpdated = now

		if err := tx.Save(&v).Error; err != nil {
			return err
		}

		d, err := v.Details()
		if err != nil {
			return err
		}
		if d == nil {
			d = &models.AdditionalDetails{}
		}
		entry = models.VisitorLog{
			ID:              uuid.NewString(),
			VisitorID:       v.ID,
			Name:            v.Name,
			ContactNumber:   v.ContactNumber,
			WhomToMeet:      d.WhomToMeet,
			Department:      d.Department,
			PurposeOfVisit:  v.PurposeOfVisit,
			CheckInTime:     now,
			Status:          models.StatusIn,
			VisitorCount:    d.VisitorCount,
			VisitorPhotoURL: d.VisitorPhotoURL,
			DocumentURL:     d.DocumentURL,
			Type:            models.TypeQuickCheckIn,
		}
		if entry.VisitorCount == 0 {
			entry.VisitorCount = 1
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, nil, classify(err)
	}
	s.notify(ctx)
	return &updated, &entry, nil
}

// AppendLog writes one visit occurrence. Entries are never updated
// after creation except for CheckOutTime.
func (s *Store) AppendLog(ctx context.Context, entry *models.VisitorLog) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.VisitorCount == 0 {
		entry.VisitorCount = 1
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return "", classify(err)
	}
	return entry.ID, nil
}

// LogsBetween fetches visit entries whose checkInTime falls in
// [from, to), newest first. Used by the today's-visitors screen.
func (s *Store) LogsBetween(ctx context.Context, from, to string) ([]models.VisitorLog, error) {
	var logs []models.VisitorLog
	err := s.db.WithContext(ctx).
		Where("check_in_time >= ? AND check_in_time < ?", from, to).
		Order("check_in_time desc").
		Find(&logs).Error
	if err != nil {
		return nil, classify(err)
	}
	return logs, nil
}

// Subscribe registers a live listener. Each mutation delivers a full,
// ordered snapshot of all records (not a diff) on the returned channel;
// only the latest snapshot is kept when the consumer lags. The cancel
// func must be called when the owning screen goes away; it is
// idempotent and closes the channel.
func (s *Store) Subscribe(ctx context.Context) (<-chan []models.Visitor, func()) {
	ch := make(chan []models.Visitor, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	// Initial snapshot so the consumer renders without waiting for a write
	if snapshot, err := s.QueryVisitors(ctx); err == nil {
		ch <- snapshot
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify pushes a fresh snapshot to every subscriber. A slow consumer
// has its stale pending snapshot replaced rather than blocking writes.
func (s *Store) notify(ctx context.Context) {
	s.mu.Lock()
	if len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	snapshot, err := s.QueryVisitors(ctx)
	if err != nil {
		log.Printf("snapshot query failed, subscribers skipped: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// mergeDetails overlays the non-zero fields of patch onto the stored
// additionalDetails so a details write never drops fields set earlier.
func mergeDetails(v *models.Visitor, patch *models.AdditionalDetails) error {
	current, err := v.Details()
	if err != nil {
		return err
	}
	if current == nil {
		current = &models.AdditionalDetails{}
	}

	// Merge via JSON so only fields present in the patch overwrite
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, current); err != nil {
		return err
	}
	return v.SetDetails(current)
}
