package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// Ensure UploadManager implements the interface.
var _ driving.UploadManager = (*UploadManager)(nil)

// UploadManager drives staged places through contact, place and user creation.
//
// Places are uploaded in batches. Places in one batch run concurrently and
// batches run one after another. Places replacing an existing contact are
// only started once every new place has finished.
type UploadManager struct {
	cache     *RemotePlaceCache
	accounts  *AccountProvisioner
	recorder  driven.UploadRecorder
	batchSize int

	mu        sync.RWMutex
	observers map[int]driven.UploadObserver
	nextID    int
}

// NewUploadManager creates an upload manager.
// batchSize below 1 uses domain.DefaultUploadBatchSize. recorder may be nil.
func NewUploadManager(cache *RemotePlaceCache, accounts *AccountProvisioner, batchSize int, recorder driven.UploadRecorder) *UploadManager {
	if batchSize < 1 {
		batchSize = domain.DefaultUploadBatchSize
	}
	return &UploadManager{
		cache:     cache,
		accounts:  accounts,
		recorder:  recorder,
		batchSize: batchSize,
		observers: make(map[int]driven.UploadObserver),
	}
}

// Subscribe registers an observer and returns a func that removes it.
func (m *UploadManager) Subscribe(observer driven.UploadObserver) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.observers[id] = observer

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// DoUpload uploads every place that is not yet created and has no
// validation errors.
//
// A place that fails is marked FAILURE with its error recorded and the
// batch carries on. Authorization, transport and cancellation errors stop
// the run once the current batch finishes: places that were not started
// return to PENDING and the error is returned.
func (m *UploadManager) DoUpload(ctx context.Context, places []*domain.Place, client driven.DirectoryClient) error {
	var pending, independants, dependants []*domain.Place
	for _, p := range places {
		if p.IsCreated() || p.HasValidationErrors() {
			continue
		}
		pending = append(pending, p)
		if p.IsDependant() {
			dependants = append(dependants, p)
		} else {
			independants = append(independants, p)
		}
	}
	if len(pending) == 0 {
		logger.Info("Nothing to upload")
		return nil
	}

	logger.Section("Upload")
	logger.Info("Uploading %d place(s): %d new, %d replacement(s), batch size %d",
		len(pending), len(independants), len(dependants), m.batchSize)
	m.changeState(pending, domain.UploadScheduled)

	for _, group := range [][]*domain.Place{independants, dependants} {
		if err := m.uploadInBatches(ctx, group, client); err != nil {
			m.abandon(pending)
			return err
		}
	}
	return nil
}

func (m *UploadManager) uploadInBatches(ctx context.Context, places []*domain.Place, client driven.DirectoryClient) error {
	for start := 0; start < len(places); start += m.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+m.batchSize, len(places))
		var g errgroup.Group
		for _, place := range places[start:end] {
			g.Go(func() error {
				return m.uploadSinglePlace(ctx, place, client)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// uploadSinglePlace returns only errors that must stop the run.
func (m *UploadManager) uploadSinglePlace(ctx context.Context, place *domain.Place, client driven.DirectoryClient) error {
	started := time.Now()
	m.changeState([]*domain.Place{place}, domain.UploadInProgress)

	err := m.runSteps(ctx, place, client)
	if err != nil {
		logger.Warn("Upload of %s failed: %v", place.Name(), err)
		place.SetUploadError(err.Error())
		m.changeState([]*domain.Place{place}, domain.UploadFailure)
	} else {
		logger.Info("Created %s: place %s, user %s", place.Name(), place.CreationDetails().PlaceID, place.CreationDetails().Username)
		place.ClearUploadError()
		m.changeState([]*domain.Place{place}, domain.UploadSuccess)
	}
	if m.recorder != nil {
		m.recorder.PlaceFinished(place.State(), time.Since(started))
	}

	if err != nil && (domain.IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("upload %s: %w", place.Name(), err)
	}
	return nil
}

// runSteps performs each remote write whose creation detail is still unset.
func (m *UploadManager) runSteps(ctx context.Context, place *domain.Place, client driven.DirectoryClient) error {
	uploader := uploaderFor(place, client)
	payload := place.AsPayload(client.Session().Username)

	if place.CreationDetails().ContactID == "" {
		contactID, err := uploader.handleContact(ctx, payload)
		if err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
		place.SetContactID(contactID)
	}

	if place.CreationDetails().PlaceID == "" {
		placeID, err := uploader.handlePlacePayload(ctx, place, payload)
		if err != nil {
			return fmt.Errorf("create place: %w", err)
		}
		place.SetPlaceID(placeID)
	}

	if err := uploader.linkContactAndPlace(ctx, place, place.CreationDetails().PlaceID); err != nil {
		return fmt.Errorf("link contact: %w", err)
	}

	details := place.CreationDetails()
	if details.ContactID == "" {
		return errors.New("contact id was not set")
	}

	if details.Username == "" {
		user := domain.NewUserPayload(place, details.PlaceID, details.ContactID)
		user, err := m.accounts.Provision(ctx, user, client)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		place.SetCredentials(user.Username, user.Password)
	}

	m.cache.Add(place, client)
	return nil
}

// abandon returns places that never started to PENDING.
func (m *UploadManager) abandon(places []*domain.Place) {
	for _, p := range places {
		if p.State() == domain.UploadScheduled {
			p.SetState(domain.UploadPending)
		}
	}
	m.notifyTable()
}

// changeState sets the state of every place, then notifies observers once:
// per row for a single place, per table otherwise.
func (m *UploadManager) changeState(places []*domain.Place, state domain.UploadState) {
	for _, p := range places {
		p.SetState(state)
	}

	if len(places) == 1 {
		for _, o := range m.snapshotObservers() {
			o.RowChanged(places[0].ID)
		}
		return
	}
	m.notifyTable()
}

func (m *UploadManager) notifyTable() {
	for _, o := range m.snapshotObservers() {
		o.TableChanged()
	}
}

func (m *UploadManager) snapshotObservers() []driven.UploadObserver {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]driven.UploadObserver, 0, len(m.observers))
	for _, o := range m.observers {
		out = append(out, o)
	}
	return out
}
