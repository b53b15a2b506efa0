package service

import (
	"context"
	"errors"
	"testing"

	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/leads/domain"
	"clinicportal_backend/internal/leads/repository"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store tracking every AI-flag write.
type fakeStore struct {
	leads    map[uuid.UUID]*repository.Lead
	aiWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeStore) add(lead repository.Lead) *repository.Lead {
	stored := lead
	f.leads[lead.ID] = &stored
	return &stored
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:       uuid.New(),
		ClinicID: params.ClinicID,
		Name:     params.Name,
		Phone:    params.Phone,
		Email:    params.Email,
		Origin:   params.Origin,
		StageID:  params.StageID,
	}
	return *f.add(lead), nil
}

func (f *fakeStore) GetByID(_ context.Context, clinicID, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.ClinicID != clinicID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return *lead, nil
}

func (f *fakeStore) Update(_ context.Context, clinicID, id uuid.UUID, _ repository.UpdateLeadParams) (repository.Lead, error) {
	return f.GetByID(context.Background(), clinicID, id)
}

func (f *fakeStore) Delete(_ context.Context, _, id uuid.UUID) error {
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, _ uuid.UUID, _ repository.ListParams) ([]repository.Lead, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) ListByStage(_ context.Context, _, _ uuid.UUID) ([]repository.Lead, error) {
	return nil, nil
}

func (f *fakeStore) ListUnresolvedAI(_ context.Context, clinicID uuid.UUID) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.ClinicID == clinicID && lead.AIConversationEnabled == nil {
			out = append(out, *lead)
		}
	}
	return out, nil
}

func (f *fakeStore) MoveToStage(_ context.Context, clinicID, id, stageID uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.ClinicID != clinicID {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.StageID = stageID
	return *lead, nil
}

func (f *fakeStore) SetAIEnabled(_ context.Context, clinicID, id uuid.UUID, enabled bool, onlyIfNull bool) (bool, error) {
	lead, ok := f.leads[id]
	if !ok || lead.ClinicID != clinicID {
		return false, nil
	}
	if onlyIfNull && lead.AIConversationEnabled != nil {
		return false, nil
	}
	value := enabled
	lead.AIConversationEnabled = &value
	f.aiWrites++
	return true, nil
}

func settingsReader(settings domain.AISettings) func(context.Context, uuid.UUID) (domain.AISettings, error) {
	return func(context.Context, uuid.UUID) (domain.AISettings, error) {
		return settings, nil
	}
}

func newTestService(store *fakeStore, settings func(context.Context, uuid.UUID) (domain.AISettings, error)) *Service {
	bus := events.NewInMemoryBus(logger.New("development"))
	defaultStage := func(context.Context, uuid.UUID) (uuid.UUID, error) { return uuid.New(), nil }
	return New(store, settings, defaultStage, bus)
}

func originPtr(v string) *string { return &v }

func TestResolutionPersistsOnceForAdLead(t *testing.T) {
	clinicID := uuid.New()
	store := newFakeStore()
	lead := store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID, Origin: originPtr("Facebook Ads")})

	svc := newTestService(store, settingsReader(domain.AISettings{ActiveForAdLeadsOnly: true}))

	enabled, err := svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("first resolution failed: %v", err)
	}
	if !enabled {
		t.Fatal("ad-sourced lead must resolve to enabled under ads-only settings")
	}
	if store.aiWrites != 1 {
		t.Fatalf("expected exactly one persisted write, got %d", store.aiWrites)
	}

	enabled, err = svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("second resolution failed: %v", err)
	}
	if !enabled {
		t.Fatal("second resolution must return the stored value")
	}
	if store.aiWrites != 1 {
		t.Fatalf("second resolution must not write again, got %d writes", store.aiWrites)
	}
}

func TestResolutionPrecedence(t *testing.T) {
	clinicID := uuid.New()
	store := newFakeStore()
	lead := store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID, Origin: originPtr("referral")})

	svc := newTestService(store, settingsReader(domain.AISettings{
		ActiveForAllNewLeads: true,
		ActiveForAdLeadsOnly: true,
	}))

	enabled, err := svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if !enabled {
		t.Fatal("all-new-leads must win over the ads-only rule for any origin")
	}

	store = newFakeStore()
	lead = store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID, Origin: originPtr("Instagram Campaign")})
	svc = newTestService(store, settingsReader(domain.AISettings{}))

	enabled, err = svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if enabled {
		t.Fatal("both flags off must resolve to disabled for any origin")
	}
}

func TestManualOverrideSticks(t *testing.T) {
	clinicID := uuid.New()
	store := newFakeStore()
	lead := store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID, Origin: originPtr("Facebook Ads")})

	svc := newTestService(store, settingsReader(domain.AISettings{ActiveForAllNewLeads: true}))

	if err := svc.SetAIConversation(context.Background(), clinicID, lead.ID, false); err != nil {
		t.Fatalf("manual set failed: %v", err)
	}

	enabled, err := svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if enabled {
		t.Fatal("resolver must return the manual override, not recompute from settings")
	}
}

func TestResolutionFailsSafeWhenSettingsUnavailable(t *testing.T) {
	clinicID := uuid.New()
	store := newFakeStore()
	lead := store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID, Origin: originPtr("Facebook Ads")})

	unavailable := func(context.Context, uuid.UUID) (domain.AISettings, error) {
		return domain.AISettings{}, errors.New("settings not loaded")
	}
	svc := newTestService(store, unavailable)

	enabled, err := svc.ResolveAIActivation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if enabled {
		t.Fatal("unavailable settings must resolve to disabled")
	}
	if store.aiWrites != 0 {
		t.Fatal("fail-safe default must not be persisted")
	}
	if store.leads[lead.ID].AIConversationEnabled != nil {
		t.Fatal("lead must remain unresolved for a later attempt")
	}
}

func TestToggleInvertsEffectiveValue(t *testing.T) {
	clinicID := uuid.New()
	store := newFakeStore()
	lead := store.add(repository.Lead{ID: uuid.New(), ClinicID: clinicID})

	svc := newTestService(store, settingsReader(domain.AISettings{ActiveForAllNewLeads: true}))

	next, err := svc.ToggleAIConversation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if next {
		t.Fatal("toggle after resolving to enabled must yield disabled")
	}

	next, err = svc.ToggleAIConversation(context.Background(), clinicID, lead.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if !next {
		t.Fatal("each toggle call must invert the stored state")
	}
}
