package services

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
	"github.com/custodia-labs/usermgr/internal/logger"
)

// Ensure PlaceService implements the interface.
var _ driving.PlaceService = (*PlaceService)(nil)

// PlaceService stages places locally and uploads them.
type PlaceService struct {
	cfg     *domain.AppConfig
	store   driven.PlaceStore
	cache   *RemotePlaceCache
	uploads driving.UploadManager
}

// NewPlaceService creates a place service.
func NewPlaceService(cfg *domain.AppConfig, store driven.PlaceStore, cache *RemotePlaceCache, uploads driving.UploadManager) *PlaceService {
	return &PlaceService{
		cfg:     cfg,
		store:   store,
		cache:   cache,
		uploads: uploads,
	}
}

// Add stages a new place.
func (s *PlaceService) Add(ctx context.Context, client driven.DirectoryClient, input driving.PlaceInput) (*domain.Place, error) {
	contactType, err := s.cfg.ContactType(input.Type)
	if err != nil {
		return nil, err
	}

	place := domain.NewPlace(uuid.NewString(), contactType)
	place.Hierarchy.Names = make(map[string]string)
	applyInput(place, input)

	if err := s.resolve(ctx, client, place, input.Replace); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, client.Session().AuthInfo.Domain, place); err != nil {
		return nil, fmt.Errorf("save place: %w", err)
	}

	logger.Debug("Staged %s %q as %s", contactType.Name, place.Name(), place.ID)
	return place, nil
}

// Edit updates a staged place. Non-empty input values replace the
// current ones. A created place can no longer be edited.
func (s *PlaceService) Edit(ctx context.Context, client driven.DirectoryClient, id string, input driving.PlaceInput) (*domain.Place, error) {
	place, err := s.store.Get(ctx, id, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	if place.IsCreated() {
		return nil, fmt.Errorf("%w: place %s is already created", domain.ErrInvalidInput, id)
	}
	if input.Type != "" && input.Type != place.Type.Name {
		return nil, fmt.Errorf("%w: cannot change the type of place %s", domain.ErrInvalidInput, id)
	}

	replace := input.Replace
	if replace == "" && place.Hierarchy.Replacement != nil {
		replace = place.Hierarchy.Replacement.Name
	}
	applyInput(place, input)

	if err := s.resolve(ctx, client, place, replace); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, client.Session().AuthInfo.Domain, place); err != nil {
		return nil, fmt.Errorf("save place: %w", err)
	}
	return place, nil
}

// Get retrieves a staged place.
func (s *PlaceService) Get(ctx context.Context, id string) (*domain.Place, error) {
	return s.store.Get(ctx, id, s.cfg)
}

// List returns the places staged for a remote instance.
func (s *PlaceService) List(ctx context.Context, domainName string) ([]*domain.Place, error) {
	return s.store.List(ctx, domainName, s.cfg)
}

// Remove discards a staged place.
func (s *PlaceService) Remove(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Upload uploads staged places and persists their progress as it happens.
func (s *PlaceService) Upload(ctx context.Context, client driven.DirectoryClient, ids []string) ([]*domain.Place, error) {
	places, err := s.Select(ctx, client.Session().AuthInfo.Domain, ids)
	if err != nil {
		return nil, err
	}
	return places, s.UploadPlaces(ctx, client, places)
}

// Select returns the staged places with the given ids, or every staged
// place of domainName when ids is empty.
func (s *PlaceService) Select(ctx context.Context, domainName string, ids []string) ([]*domain.Place, error) {
	if len(ids) == 0 {
		places, err := s.store.List(ctx, domainName, s.cfg)
		if err != nil {
			return nil, fmt.Errorf("list places: %w", err)
		}
		return places, nil
	}

	places := make([]*domain.Place, 0, len(ids))
	for _, id := range ids {
		place, err := s.store.Get(ctx, id, s.cfg)
		if err != nil {
			return nil, fmt.Errorf("get place %s: %w", id, err)
		}
		places = append(places, place)
	}
	return places, nil
}

// UploadPlaces uploads places loaded with Select, saving each place as
// its upload status changes.
func (s *PlaceService) UploadPlaces(ctx context.Context, client driven.DirectoryClient, places []*domain.Place) error {
	// Saves must land even when the upload is cancelled.
	saveCtx := context.WithoutCancel(ctx)
	progress := &persistingObserver{
		ctx:        saveCtx,
		store:      s.store,
		domainName: client.Session().AuthInfo.Domain,
		places:     make(map[string]*domain.Place, len(places)),
	}
	for _, p := range places {
		progress.places[p.ID] = p
	}
	unsubscribe := s.uploads.Subscribe(progress)
	defer unsubscribe()

	uploadErr := s.uploads.DoUpload(ctx, places, client)
	progress.TableChanged()
	return uploadErr
}

// RetireUsers disables or deactivates the users assigned to a remote place.
func (s *PlaceService) RetireUsers(ctx context.Context, client driven.DirectoryClient, placeID string, deactivate bool) ([]string, error) {
	if deactivate {
		return client.DeactivateUsersWithPlace(ctx, placeID)
	}
	return client.DisableUsersWithPlace(ctx, placeID)
}

// ClearCache drops the cached remote listing of a type.
func (s *PlaceService) ClearCache(client driven.DirectoryClient, placeType string) {
	s.cache.Clear(client, placeType)
}

// resolve looks up the place's ancestors and replacement target among the
// remote places, then recomputes its validation errors. Only failures to
// reach the remote instance are returned; anything else becomes a
// validation error on the place.
func (s *PlaceService) resolve(ctx context.Context, client driven.DirectoryClient, place *domain.Place, replace string) error {
	place.Hierarchy.Parent = nil
	place.Hierarchy.Replacement = nil
	problems := make(map[string]string)

	var ancestor *domain.RemotePlace
	for _, level := range place.Type.HierarchyDesc() {
		name := strings.TrimSpace(place.Hierarchy.Names[level.PropertyName])
		if name == "" {
			continue
		}
		candidates, err := s.cache.Get(ctx, client, level.ContactType)
		if err != nil {
			return err
		}
		match, problem := pickPlace(candidates, name, level.FriendlyName, func(p domain.RemotePlace) bool {
			return ancestor == nil || p.HasAncestor(ancestor.ID)
		})
		if problem != "" {
			problems["hierarchy_"+level.PropertyName] = problem
			ancestor = nil
			continue
		}
		ancestor = match
		if level.Level == 1 {
			place.Hierarchy.Parent = match
		}
	}

	if replace = strings.TrimSpace(replace); replace != "" {
		candidates, err := s.cache.Get(ctx, client, place.Type.Name)
		if err != nil {
			return err
		}
		parent := place.Hierarchy.Parent
		match, problem := pickPlace(candidates, replace, place.Type.Friendly, func(p domain.RemotePlace) bool {
			return parent == nil || (len(p.Lineage) > 0 && p.Lineage[0] == parent.ID)
		})
		if problem != "" {
			problems["replacement"] = problem
		} else {
			place.Hierarchy.Replacement = match
		}
	}

	place.Validate()
	maps.Copy(place.ValidationErrors, problems)

	session := client.Session()
	if target := authorizationTarget(place); target != nil && !session.IsPlaceAuthorized(*target) {
		place.ValidationErrors["authorization"] = fmt.Sprintf("User %s is not authorized to manage %q", session.Username, target.Name)
	}
	return nil
}

// authorizationTarget is the remote place an upload of place writes under.
func authorizationTarget(place *domain.Place) *domain.RemotePlace {
	if place.Hierarchy.Replacement != nil {
		return place.Hierarchy.Replacement
	}
	return place.Hierarchy.Parent
}

// pickPlace finds the single candidate named name (case-insensitive) that
// satisfies keep. It returns a problem description otherwise.
func pickPlace(candidates []domain.RemotePlace, name, friendly string, keep func(domain.RemotePlace) bool) (*domain.RemotePlace, string) {
	var matches []domain.RemotePlace
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) && keep(c) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Sprintf("Cannot find %s %q", friendly, name)
	case 1:
		return &matches[0], ""
	default:
		return nil, fmt.Sprintf("Found %d places named %s %q", len(matches), friendly, name)
	}
}

func applyInput(place *domain.Place, input driving.PlaceInput) {
	for k, v := range input.Properties {
		if v = strings.TrimSpace(v); v != "" {
			place.Properties[k] = v
		}
	}
	for k, v := range input.Contact {
		if v = strings.TrimSpace(v); v != "" {
			place.Contact.Properties[k] = v
		}
	}
	if place.Hierarchy.Names == nil {
		place.Hierarchy.Names = make(map[string]string)
	}
	for k, v := range input.Hierarchy {
		if v = strings.TrimSpace(v); v != "" {
			place.Hierarchy.Names[k] = v
		}
	}
}

// persistingObserver saves places as the upload changes them.
type persistingObserver struct {
	ctx        context.Context
	store      driven.PlaceStore
	domainName string
	places     map[string]*domain.Place
}

func (o *persistingObserver) RowChanged(placeID string) {
	place, ok := o.places[placeID]
	if !ok {
		return
	}
	if err := o.store.Save(o.ctx, o.domainName, place); err != nil {
		logger.Warn("Could not save progress of %s: %v", placeID, err)
	}
}

func (o *persistingObserver) TableChanged() {
	for id := range o.places {
		o.RowChanged(id)
	}
}
