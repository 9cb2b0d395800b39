package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

type rangeCall struct {
	ownerID    int64
	start, end time.Time
}

type closeCall struct {
	orderID, ownerID int64
	fields           models.ClosingFields
}

// fakeRepo is an in-memory Repository with switchable failures.
type fakeRepo struct {
	mu         sync.Mutex
	profiles   map[int64]models.UserProfile
	orders     []models.WorkOrder
	nextID     int64
	findErr    error
	codeErr    error
	createErr  error
	openErr    error
	rangeCalls []rangeCall
	closeCalls []closeCall
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[int64]models.UserProfile)}
}

func (r *fakeRepo) addProfile(chatID int64, name, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[chatID] = models.UserProfile{
		ChatID: chatID, Name: name, Role: "Mecânico", Level: "Pleno", Department: "Usinagem", RegistrationCode: code,
	}
}

func (r *fakeRepo) addOrder(ownerID int64, machine string, openedAt time.Time, closed bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order := models.WorkOrder{
		ID: r.nextID, OwnerID: ownerID, MachineNumber: machine, MachineModel: "Romi",
		MaintenanceType: models.MaintenanceCorrective, ProblemDescription: "Ruído", OpenedAt: openedAt,
	}
	if closed {
		closedAt := openedAt.Add(time.Hour)
		order.ClosedAt = &closedAt
	}
	r.orders = append(r.orders, order)
	return order.ID
}

func (r *fakeRepo) profile(chatID int64) (models.UserProfile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[chatID]
	return p, ok
}

func (r *fakeRepo) order(id int64) models.WorkOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o
		}
	}
	return models.WorkOrder{}
}

func (r *fakeRepo) FindUserByOwner(_ context.Context, chatID int64) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.profiles[chatID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakeRepo) RegistrationCodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeErr != nil {
		return false, r.codeErr
	}
	for _, p := range r.profiles {
		if p.RegistrationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CreateUserProfile(_ context.Context, profile models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, p := range r.profiles {
		if p.RegistrationCode == profile.RegistrationCode || p.ChatID == profile.ChatID {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	r.profiles[profile.ChatID] = profile
	return nil
}

func (r *fakeRepo) CreateWorkOrder(_ context.Context, order models.WorkOrder) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	order.ID = r.nextID
	r.orders = append(r.orders, order)
	return order.ID, nil
}

func (r *fakeRepo) FindOpenOrdersByOwner(_ context.Context, ownerID int64) ([]models.OpenOrderRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return nil, r.openErr
	}
	var refs []models.OpenOrderRef
	for _, o := range r.orders {
		if o.OwnerID == ownerID && o.IsOpen() {
			refs = append(refs, models.OpenOrderRef{ID: o.ID, MachineNumber: o.MachineNumber})
		}
	}
	return refs, nil
}

func (r *fakeRepo) CloseWorkOrder(_ context.Context, orderID, ownerID int64, fields models.ClosingFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeCalls = append(r.closeCalls, closeCall{orderID: orderID, ownerID: ownerID, fields: fields})
	for i, o := range r.orders {
		if o.ID == orderID && o.OwnerID == ownerID && o.IsOpen() {
			closedAt := fields.ClosedAt
			r.orders[i].ClosedAt = &closedAt
			r.orders[i].SolutionApplied = &fields.SolutionApplied
			r.orders[i].PartReplaced = fields.PartReplaced
			r.orders[i].PartDescription = fields.PartDescription
			r.orders[i].PartTag = fields.PartTag
			r.orders[i].ServiceCompleted = &fields.ServiceCompleted
			r.orders[i].Notes = fields.Notes
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) FindOrdersByOwnerAndDateRange(_ context.Context, ownerID int64, start, end time.Time) ([]models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rangeCalls = append(r.rangeCalls, rangeCall{ownerID: ownerID, start: start, end: end})
	var orders []models.WorkOrder
	for _, o := range r.orders {
		if o.OwnerID == ownerID && !o.OpenedAt.Before(start) && o.OpenedAt.Before(end) {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, profile models.UserProfile, orders []models.WorkOrder, periodLabel string) (*models.Document, error) {
	args := m.Called(ctx, profile, orders, periodLabel)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockRenderer) Discard(doc *models.Document) error {
	return m.Called(doc).Error(0)
}

// recordingObserver keeps every lifecycle event as "flow:detail" strings.
type recordingObserver struct {
	mu         sync.Mutex
	started    []string
	rejected   []string
	validation []string
	finished   []string
}

func (o *recordingObserver) FlowStarted(flow models.FlowID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, string(flow))
}

func (o *recordingObserver) FlowRejected(flow models.FlowID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, string(flow))
}

func (o *recordingObserver) ValidationFailed(flow models.FlowID, state models.StateID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.validation = append(o.validation, string(flow)+":"+string(state))
}

func (o *recordingObserver) FlowFinished(flow models.FlowID, result Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, string(flow)+":"+string(result))
}

type testEnv struct {
	engine   *Engine
	repo     *fakeRepo
	renderer *mockRenderer
	observer *recordingObserver
	defs     map[models.FlowID]*Definition
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     newFakeRepo(),
		renderer: &mockRenderer{},
		observer: &recordingObserver{},
		defs:     make(map[models.FlowID]*Definition),
	}
	defs := Flows(Deps{Repo: env.repo, Renderer: env.renderer, Now: func() time.Time { return fixedNow }})
	for _, def := range defs {
		env.defs[def.ID] = def
	}
	engine, err := NewEngine(repository.NewSessionStore(), env.observer, defs...)
	require.NoError(t, err)
	env.engine = engine
	return env
}

func (env *testEnv) start(t *testing.T, userID int64, flowID models.FlowID) Reply {
	t.Helper()
	reply, err := env.engine.Start(context.Background(), userID, flowID)
	require.NoError(t, err)
	env.assertValidState(t, userID)
	return reply
}

func (env *testEnv) text(t *testing.T, userID int64, text string) Reply {
	t.Helper()
	return env.submit(t, userID, TextInput(text))
}

func (env *testEnv) choose(t *testing.T, userID int64, value string) Reply {
	t.Helper()
	return env.submit(t, userID, ChoiceInput(value))
}

func (env *testEnv) submit(t *testing.T, userID int64, in Input) Reply {
	t.Helper()
	reply, err := env.engine.Submit(context.Background(), userID, in)
	require.NoError(t, err)
	env.assertValidState(t, userID)
	return reply
}

// assertValidState checks that a live session always points at a state of its own flow.
func (env *testEnv) assertValidState(t *testing.T, userID int64) {
	t.Helper()
	session, ok := env.engine.Session(userID)
	if !ok {
		return
	}
	def, ok := env.defs[session.FlowID]
	require.True(t, ok, "session of unknown flow %s", session.FlowID)
	_, ok = def.States[session.StateID]
	require.True(t, ok, "session of %s in unknown state %q", session.FlowID, session.StateID)
}

func (env *testEnv) session(t *testing.T, userID int64) *models.Session {
	t.Helper()
	session, ok := env.engine.Session(userID)
	require.True(t, ok, "user %d has no session", userID)
	return session
}

var errDown = errors.New("database is down")
