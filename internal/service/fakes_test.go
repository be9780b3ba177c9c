package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/notify"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/repository"
)

var productionDay = time.Date(2024, time.May, 14, 0, 0, 0, 0, time.UTC)

func on(hour, minute int) time.Time {
	return productionDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

var (
	officer  = domain.Actor{ID: "officer-1", Capability: domain.CapabilityBookingOfficer}
	producer = domain.Actor{ID: "producer-1", Capability: domain.CapabilityProducer}
)

func crew(id string) domain.Actor {
	return domain.Actor{ID: id, Capability: domain.CapabilityCrew}
}

func cloneProduction(p domain.Production) domain.Production {
	out := p
	if p.AssignedStaff != nil {
		out.AssignedStaff = make(domain.AssignedStaff, len(p.AssignedStaff))
		for slot, ids := range p.AssignedStaff {
			out.AssignedStaff[slot] = append([]string(nil), ids...)
		}
	}
	if p.ActualEndTime != nil {
		end := *p.ActualEndTime
		out.ActualEndTime = &end
	}
	if p.ProcessedByID != nil {
		id := *p.ProcessedByID
		out.ProcessedByID = &id
	}
	return out
}

type fakeProductionRepo struct {
	mu      sync.Mutex
	items   map[string]domain.Production
	history *fakeHistoryRepo
	seq     int
	err     error
	updates int

	// beforeUpdate runs once, ahead of the next Update, to simulate a
	// concurrent writer landing between read and write.
	beforeUpdate func()
}

func newFakeProductionRepo(history *fakeHistoryRepo) *fakeProductionRepo {
	return &fakeProductionRepo{items: map[string]domain.Production{}, history: history}
}

func (r *fakeProductionRepo) Create(ctx context.Context, production *domain.Production, history *domain.ProductionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seq++
	if production.ID == "" {
		production.ID = fmt.Sprintf("prod-%d", r.seq)
	}
	production.CreatedAt = productionDay
	production.UpdatedAt = productionDay
	r.items[production.ID] = cloneProduction(*production)
	if history != nil {
		history.ProductionID = production.ID
		r.history.record(history)
	}
	return nil
}

func (r *fakeProductionRepo) Update(ctx context.Context, production *domain.Production, expected domain.ProductionStatus, history ...*domain.ProductionHistory) error {
	if hook := r.beforeUpdate; hook != nil {
		r.beforeUpdate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	stored, ok := r.items[production.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStatusChanged
	}
	r.updates++
	r.items[production.ID] = cloneProduction(*production)
	for _, entry := range history {
		entry.ProductionID = production.ID
		r.history.record(entry)
	}
	return nil
}

// force overwrites the stored status the way another writer would.
func (r *fakeProductionRepo) force(id string, status domain.ProductionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.items[id]
	p.Status = status
	r.items[id] = p
}

func (r *fakeProductionRepo) GetByID(ctx context.Context, id string) (*domain.Production, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneProduction(p)
	return &out, nil
}

func (r *fakeProductionRepo) ListWithFilter(ctx context.Context, filter repository.ProductionFilter) ([]domain.Production, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Production
	for _, p := range r.items {
		if filter.StaffID != nil && !p.AssignedStaff.Holds(*filter.StaffID) {
			continue
		}
		if filter.RequesterID != nil && p.RequestedByID != *filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, p.Status) {
			continue
		}
		if filter.DateFrom != nil && p.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && p.Date.After(*filter.DateTo) {
			continue
		}
		out = append(out, cloneProduction(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeProductionRepo) seed(p domain.Production) domain.Production {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.AssignedStaff == nil {
		p.AssignedStaff = domain.AssignedStaff{}
	}
	if p.Date.IsZero() {
		p.Date = productionDay
	}
	if p.RequestedByID == "" {
		p.RequestedByID = producer.ID
	}
	r.items[p.ID] = cloneProduction(p)
	return p
}

func (r *fakeProductionRepo) get(id string) domain.Production {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneProduction(r.items[id])
}

func containsStatus(statuses []domain.ProductionStatus, status domain.ProductionStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	items map[string]domain.StaffMember
	seq   int
	last  repository.StaffFilter
}

func newFakeStaffRepo(members ...domain.StaffMember) *fakeStaffRepo {
	r := &fakeStaffRepo{items: map[string]domain.StaffMember{}}
	for _, m := range members {
		r.items[m.ID] = m
	}
	return r
}

func (r *fakeStaffRepo) Create(ctx context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	staff.ID = fmt.Sprintf("staff-%d", r.seq)
	r.items[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (r *fakeStaffRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffMember
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = filter
	var out []domain.StaffMember
	for _, m := range r.items {
		if filter.Role != nil && !m.HasRole(*filter.Role) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.ProductionHistory
}

func (r *fakeHistoryRepo) record(history *domain.ProductionHistory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = fmt.Sprintf("hist-%d", len(r.entries)+1)
	r.entries = append(r.entries, *history)
}

func (r *fakeHistoryRepo) ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductionHistory
	for _, e := range r.entries {
		if e.ProductionID == productionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) changeTypes(productionID string) []domain.ProductionChangeType {
	entries, _ := r.ListByProduction(context.Background(), productionID)
	out := make([]domain.ProductionChangeType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ChangeType)
	}
	return out
}

type fakeNoteRepo struct {
	mu    sync.Mutex
	notes []domain.ProductionNote
}

func (r *fakeNoteRepo) Create(ctx context.Context, note *domain.ProductionNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	note.ID = fmt.Sprintf("note-%d", len(r.notes)+1)
	r.notes = append(r.notes, *note)
	return nil
}

func (r *fakeNoteRepo) ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductionNote
	for _, n := range r.notes {
		if n.ProductionID == productionID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeIssueRepo struct {
	mu    sync.Mutex
	items map[string]domain.Issue
	seq   int
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{items: map[string]domain.Issue{}}
}

func (r *fakeIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	issue.ID = fmt.Sprintf("issue-%d", r.seq)
	r.items[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) Update(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[issue.ID] = *issue
	return nil
}

func (r *fakeIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &issue, nil
}

func (r *fakeIssueRepo) ListByProduction(ctx context.Context, productionID string) ([]domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Issue
	for _, issue := range r.items {
		if issue.ProductionID == productionID {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) byType(t events.EventType) []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Notification
	for _, sent := range n.sent {
		if sent.Type == string(t) {
			out = append(out, sent)
		}
	}
	return out
}

type harness struct {
	productions  *fakeProductionRepo
	staff        *fakeStaffRepo
	history      *fakeHistoryRepo
	notes        *fakeNoteRepo
	issues       *fakeIssueRepo
	notifier     *recordingNotifier
	registry     *prometheus.Registry
	logs         *observer.ObservedLogs
	now          time.Time
	availability *AvailabilityService
	assignment   *AssignmentService
	lifecycle    *ProductionService
	issueSvc     *IssueService
	staffSvc     *StaffService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	history := &fakeHistoryRepo{}
	h := &harness{
		productions: newFakeProductionRepo(history),
		staff: newFakeStaffRepo(
			domain.StaffMember{ID: "alice", Name: "Alice", Roles: []domain.StaffRole{domain.StaffRoleCameraOperator}},
			domain.StaffMember{ID: "bob", Name: "Bob", Roles: []domain.StaffRole{domain.StaffRoleCameraOperator, domain.StaffRoleDirector}},
			domain.StaffMember{ID: "carol", Name: "Carol", Roles: []domain.StaffRole{domain.StaffRoleSoundOperator}},
			domain.StaffMember{ID: "dan", Name: "Dan", Roles: []domain.StaffRole{domain.StaffRoleEVSOperator}},
		),
		history:  history,
		notes:    &fakeNoteRepo{},
		issues:   newFakeIssueRepo(),
		notifier: &recordingNotifier{},
		registry: prometheus.NewRegistry(),
		logs:     logs,
		now:      on(15, 0),
	}
	clock := func() time.Time { return h.now }
	metrics := observability.NewMetrics(h.registry)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, h.notifier, logger).RegisterHandlers()

	h.availability = NewAvailabilityService(h.productions, metrics)
	h.assignment = NewAssignmentService(AssignmentDependencies{
		ProductionRepo: h.productions,
		StaffRepo:      h.staff,
		Availability:   h.availability,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Clock:          clock,
	})
	h.lifecycle = NewProductionService(ProductionDependencies{
		ProductionRepo: h.productions,
		HistoryRepo:    h.history,
		NoteRepo:       h.notes,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Clock:          clock,
		Location:       time.UTC,
	})
	h.issueSvc = NewIssueService(IssueDependencies{
		IssueRepo:      h.issues,
		ProductionRepo: h.productions,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Clock:          clock,
	})
	h.staffSvc = NewStaffService(h.staff)
	return h
}

// counterValue sums a counter family, optionally restricted to matching labels.
func (h *harness) counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metrics
				}
			}
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func confirmedOn(id string, start, end time.Time, roster domain.AssignedStaff) domain.Production {
	return domain.Production{
		ID:            id,
		Name:          "Show " + id,
		StartTime:     start,
		EndTime:       end,
		CallTime:      start.Add(-time.Hour),
		Status:        domain.ProductionStatusConfirmed,
		AssignedStaff: roster,
	}
}
