package testutil

import (
	"context"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() { m.Closed = true }

// MockMetrics implements providers.MetricsProviderInterface and counts labelled calls.
type MockMetrics struct {
	mu              sync.Mutex
	Requests        int
	CacheHits       int
	CacheMisses     int
	ArchiveRuns     int
	Applications    map[string]int
	TextChanges     map[string]int
	AbuseSignals    map[string]int
	AuditBacklog    int
	RequestStatuses []int
}

func (m *MockMetrics) IncRequestsTotal(_ string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
	m.RequestStatuses = append(m.RequestStatuses, status)
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObserveArchiveDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArchiveRuns++
}
func (m *MockMetrics) IncApplications(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Applications == nil {
		m.Applications = make(map[string]int)
	}
	m.Applications[outcome]++
}
func (m *MockMetrics) IncTextChanges(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TextChanges == nil {
		m.TextChanges = make(map[string]int)
	}
	m.TextChanges[outcome]++
}
func (m *MockMetrics) IncAbuseSignals(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AbuseSignals == nil {
		m.AbuseSignals = make(map[string]int)
	}
	m.AbuseSignals[kind]++
}
func (m *MockMetrics) SetAuditBacklog(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuditBacklog = count
}

func (m *MockMetrics) ApplicationCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Applications[outcome]
}

func (m *MockMetrics) TextChangeCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TextChanges[outcome]
}

func (m *MockMetrics) AbuseSignalCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AbuseSignals[kind]
}

// MemoryStore implements every storage interface in memory.
// Set the Err fields to make the matching lookups fail.
type MemoryStore struct {
	mu           sync.Mutex
	flairs       map[string]models.FlairDefinition
	refs         map[string][]models.Reference
	users        map[string]*models.User
	apps         map[string]models.Application
	events       []models.ModerationEvent
	nextRef      int64
	nextApp      int
	nextEvent    int
	EventsErr    error
	BannedErr    error
	ContentErr   error
	CreateAppErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flairs: make(map[string]models.FlairDefinition),
		refs:   make(map[string][]models.Reference),
		users:  make(map[string]*models.User),
		apps:   make(map[string]models.Application),
	}
}

func (s *MemoryStore) GetFlair(_ context.Context, name string) (*models.FlairDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.flairs[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &def, nil
}

func (s *MemoryStore) ListFlairs(_ context.Context) ([]models.FlairDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defs := make([]models.FlairDefinition, 0, len(s.flairs))
	for _, d := range s.flairs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func (s *MemoryStore) PutFlairs(_ context.Context, defs []models.FlairDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range defs {
		s.flairs[d.Name] = d
	}
	return nil
}

func (s *MemoryStore) ListReferences(_ context.Context, user string) ([]models.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.refs[user]), nil
}

func (s *MemoryStore) AddReference(_ context.Context, ref *models.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRef++
	ref.ID = s.nextRef
	s.refs[ref.User] = append(s.refs[ref.User], *ref)
	return nil
}

// AddReferences appends n approved references of type t for user.
func (s *MemoryStore) AddReferences(user string, t models.ReferenceType, n int) {
	for range n {
		_ = s.AddReference(context.Background(), &models.Reference{User: user, Type: t, Approved: true})
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.LoggedFriendCodes = slices.Clone(u.LoggedFriendCodes)
	if u.Flair != nil {
		c.Flair = make(map[string]models.FlairState, len(u.Flair))
		for k, v := range u.Flair {
			c.Flair[k] = v
		}
	}
	return &c
}

func (s *MemoryStore) user(name string) *models.User {
	u, ok := s.users[name]
	if !ok {
		u = &models.User{Name: name}
		s.users[name] = u
	}
	return u
}

func (s *MemoryStore) GetUser(_ context.Context, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.user(user.Name)
	saved := cloneUser(user)
	for subject, st := range stored.Flair {
		if _, ok := saved.Flair[subject]; !ok {
			saved.SetFlair(subject, st)
		}
	}
	s.users[user.Name] = saved
	return nil
}

func (s *MemoryStore) SetFlairState(_ context.Context, name, subject string, state models.FlairState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(name).SetFlair(subject, state)
	return nil
}

func (s *MemoryStore) SetLoggedFriendCodes(_ context.Context, name string, codes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(name).LoggedFriendCodes = slices.Clone(codes)
	return nil
}

func (s *MemoryStore) ListBannedUsers(_ context.Context) ([]models.BannedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.BannedErr != nil {
		return nil, s.BannedErr
	}
	var out []models.BannedUser
	for _, u := range s.users {
		if u.Banned {
			out = append(out, models.BannedUser{Name: u.Name, FriendCodes: slices.Clone(u.LoggedFriendCodes)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateAppErr != nil {
		return s.CreateAppErr
	}
	for _, a := range s.apps {
		if a.User == app.User && a.Flair == app.Flair && a.Subject == app.Subject {
			return storage.ErrDuplicate
		}
	}
	if app.ID == "" {
		s.nextApp++
		app.ID = fmt.Sprintf("app-%d", s.nextApp)
	}
	s.apps[app.ID] = *app
	return nil
}

func (s *MemoryStore) GetApplication(_ context.Context, id string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &app, nil
}

func (s *MemoryStore) FindApplication(_ context.Context, user, flair, subject string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.apps {
		if a.User == user && a.Flair == flair && a.Subject == subject {
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *MemoryStore) ListApplications(_ context.Context) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apps := make([]models.Application, 0, len(s.apps))
	for _, a := range s.apps {
		apps = append(apps, a)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps, nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.apps, id)
	return nil
}

func (s *MemoryStore) CreateEvents(_ context.Context, events ...models.ModerationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EventsErr != nil {
		return s.EventsErr
	}
	for _, ev := range events {
		if ev.ID == "" {
			s.nextEvent++
			ev.ID = fmt.Sprintf("ev-%d", s.nextEvent)
		}
		s.events = append(s.events, ev)
	}
	return nil
}

func (s *MemoryStore) LatestEvent(_ context.Context, eventType models.EventType, user string) (*models.ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EventsErr != nil {
		return nil, s.EventsErr
	}
	var latest *models.ModerationEvent
	for i := range s.events {
		ev := s.events[i]
		if ev.Type == eventType && ev.User == user && (latest == nil || !ev.CreatedAt.Before(latest.CreatedAt)) {
			latest = &ev
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest, nil
}

func (s *MemoryStore) FindEventsByContent(_ context.Context, substr string) ([]models.ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ContentErr != nil {
		return nil, s.ContentErr
	}
	var out []models.ModerationEvent
	for _, ev := range s.events {
		if strings.Contains(ev.Content, substr) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]models.ModerationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EventsErr != nil {
		return nil, s.EventsErr
	}
	return slices.Clone(s.events), nil
}

func (s *MemoryStore) CountEvents(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EventsErr != nil {
		return 0, s.EventsErr
	}
	return len(s.events), nil
}

// EventsOfType returns the recorded events of type t in insertion order.
func (s *MemoryStore) EventsOfType(t models.EventType) []models.ModerationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ModerationEvent
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// MockPlatform records outbound platform calls.
type MockPlatform struct {
	mu          sync.Mutex
	FlairCalls  []FlairCall
	Messages    []MessageCall
	Notes       []models.Usernote
	Current     map[string]models.FlairState // key: "user|subject"
	SetFlairErr func(user, subject string) error
	GetFlairErr error
	MessageErr  error
	NoteErr     error
	Creds       []models.Credential
}

type FlairCall struct {
	User     string
	CSSClass string
	Text     string
	Subject  string
}

type MessageCall struct {
	Subject   string
	Body      string
	Recipient string
}

func (p *MockPlatform) SetFlair(_ context.Context, cred models.Credential, user, cssClass, text, subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Creds = append(p.Creds, cred)
	if p.SetFlairErr != nil {
		if err := p.SetFlairErr(user, subject); err != nil {
			return err
		}
	}
	p.FlairCalls = append(p.FlairCalls, FlairCall{User: user, CSSClass: cssClass, Text: text, Subject: subject})
	return nil
}

func (p *MockPlatform) GetFlair(_ context.Context, cred models.Credential, user, subject string) (models.FlairState, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Creds = append(p.Creds, cred)
	if p.GetFlairErr != nil {
		return models.FlairState{}, false, p.GetFlairErr
	}
	st, ok := p.Current[user+"|"+subject]
	return st, ok, nil
}

func (p *MockPlatform) SendPrivateMessage(_ context.Context, cred models.Credential, subject, body, recipient string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Creds = append(p.Creds, cred)
	if p.MessageErr != nil {
		return p.MessageErr
	}
	p.Messages = append(p.Messages, MessageCall{Subject: subject, Body: body, Recipient: recipient})
	return nil
}

func (p *MockPlatform) AddUsernote(_ context.Context, cred models.Credential, note models.Usernote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Creds = append(p.Creds, cred)
	if p.NoteErr != nil {
		return p.NoteErr
	}
	p.Notes = append(p.Notes, note)
	return nil
}

// FlairCallsFor returns the SetFlair calls made for subject.
func (p *MockPlatform) FlairCallsFor(subject string) []FlairCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []FlairCall
	for _, c := range p.FlairCalls {
		if c.Subject == subject {
			out = append(out, c)
		}
	}
	return out
}

func (p *MockPlatform) MessageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Messages)
}

func (p *MockPlatform) NoteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Notes)
}

// MockAudit writes events synchronously so tests observe them immediately.
type MockAudit struct {
	mu      sync.Mutex
	Store   storage.EventStoreInterface
	Events  []models.ModerationEvent
	Flushed int
	Closed  bool
}

func (a *MockAudit) Record(events ...models.ModerationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Events = append(a.Events, events...)
	if a.Store != nil {
		_ = a.Store.CreateEvents(context.Background(), events...)
	}
}

func (a *MockAudit) Flush(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Flushed++
	return nil
}

func (a *MockAudit) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Closed = true
}
