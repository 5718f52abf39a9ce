package services

import (
	"context"
	"errors"
	"flairhq/internal/audit/interfaces"
	"flairhq/internal/flair"
	"flairhq/internal/models"
	"flairhq/internal/providers"
	"flairhq/internal/storage"
	"flairhq/internal/structures"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTradesClass = "default"
	notificationTitle  = "FlairHQ Notification"
)

// Caller is the authenticated account a request runs as.
type Caller struct {
	Name  string
	IsMod bool
	IP    string
}

// Claim is what a session token carries about its user.
type Claim struct {
	User    string               `json:"user"`
	IsMod   bool                 `json:"isMod"`
	Flairs  []string             `json:"flairs"`
	Pending []models.Application `json:"pending"`
}

// TextResult is returned by a successful flair text change.
type TextResult struct {
	User        string            `json:"user"`
	Trades      models.FlairState `json:"ptrades"`
	Exchange    models.FlairState `json:"svex"`
	FriendCodes []string          `json:"loggedFriendCodes"`
	Reported    bool              `json:"-"`
	Detection   flair.Detection   `json:"-"`
}

type FlairServiceInterface interface {
	Apply(ctx context.Context, caller Caller, flairName, subject string) (*models.Application, error)
	DenyApp(ctx context.Context, caller Caller, id string) (*models.Application, error)
	ApproveApp(ctx context.Context, caller Caller, id, badge string) (*models.Application, error)
	SetText(ctx context.Context, caller Caller, trades, exchange string) (*TextResult, error)
	GetApps(ctx context.Context) ([]models.Application, error)
	RefreshClaim(ctx context.Context, caller Caller) (*Claim, error)
}

type FlairService struct {
	flairs   storage.FlairStoreInterface
	refs     storage.ReferenceStoreInterface
	users    storage.UserStoreInterface
	apps     storage.ApplicationStoreInterface
	events   storage.EventStoreInterface
	platform Platform
	audit    interfaces.WriterInterface
	cred     models.Credential

	composer   *flair.Composer
	detector   *flair.Detector
	conf       structures.FlairConfig
	moderators []string
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	now        func() time.Time

	// last text change per user, covering the window before its audit event lands
	changeMu   sync.Mutex
	lastChange map[string]time.Time
}

func NewFlairService(
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	flairs storage.FlairStoreInterface,
	refs storage.ReferenceStoreInterface,
	users storage.UserStoreInterface,
	apps storage.ApplicationStoreInterface,
	events storage.EventStoreInterface,
	platform Platform,
	audit interfaces.WriterInterface,
	cred models.Credential,
) *FlairService {
	return &FlairService{
		flairs:     flairs,
		refs:       refs,
		users:      users,
		apps:       apps,
		events:     events,
		platform:   platform,
		audit:      audit,
		cred:       cred,
		composer:   flair.NewComposer(conf.Flair.TradesSubject),
		detector:   flair.NewDetector(flair.NewValidator(conf.Flair.FriendCodeChecksum), conf.Flair.SimilarityThreshold),
		conf:       conf.Flair,
		moderators: conf.Auth.Moderators,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		lastChange: make(map[string]time.Time),
	}
}

func (s *FlairService) Apply(ctx context.Context, caller Caller, flairName, subject string) (*models.Application, error) {
	def, err := s.flairs.GetFlair(ctx, flairName)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !strings.EqualFold(def.Subject, subject)) {
		return nil, fmt.Errorf("flair %q on %s: %w", flairName, subject, ErrNotFound)
	}
	if err != nil {
		return nil, dependency("get flair", err)
	}

	if _, err := s.apps.FindApplication(ctx, caller.Name, def.Name, def.Subject); err == nil {
		s.metrics.IncApplications("duplicate")
		return nil, ErrDuplicateApplication
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, dependency("find application", err)
	}

	var (
		refs []models.Reference
		defs []models.FlairDefinition
		user *models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs, err = s.refs.ListReferences(gctx, caller.Name)
		return dependency("list references", err)
	})
	g.Go(func() error {
		var err error
		defs, err = s.flairs.ListFlairs(gctx)
		return dependency("list flairs", err)
	})
	g.Go(func() error {
		var err error
		user, err = s.loadUser(gctx, caller.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !flair.CanApply(refs, def, flair.CurrentFlairs(defs, user)) {
		s.metrics.IncApplications("ineligible")
		return nil, ErrIneligibleUser
	}

	app := &models.Application{
		User:      caller.Name,
		Flair:     def.Name,
		Subject:   def.Subject,
		CreatedAt: s.now(),
	}
	if err := s.apps.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			s.metrics.IncApplications("duplicate")
			return nil, ErrDuplicateApplication
		}
		return nil, dependency("create application", err)
	}

	s.metrics.IncApplications("applied")
	s.audit.Record(models.ModerationEvent{
		Type:      models.EventFlairApplied,
		User:      caller.Name,
		Content:   fmt.Sprintf("Applied for %s flair on /r/%s", def.FormattedName(), def.Subject),
		CreatedAt: app.CreatedAt,
	})
	return app, nil
}

func (s *FlairService) DenyApp(ctx context.Context, caller Caller, id string) (*models.Application, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apps.DeleteApplication(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
		}
		return nil, dependency("delete application", err)
	}

	s.metrics.IncApplications("denied")
	s.audit.Record(models.ModerationEvent{
		Type:      models.EventFlairAppDenied,
		User:      app.User,
		Content:   fmt.Sprintf("/u/%s denied the application for %s flair on /r/%s", caller.Name, app.Flair, app.Subject),
		CreatedAt: s.now(),
	})
	return app, nil
}

// ApproveApp sets the merged flair on the platform before touching any local
// state, so a failed platform call leaves the application pending.
func (s *FlairService) ApproveApp(ctx context.Context, caller Caller, id, badge string) (*models.Application, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	def, err := s.flairs.GetFlair(ctx, app.Flair)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, dependency("get flair", err)
	}
	formatted := (&models.FlairDefinition{Name: app.Flair}).FormattedName()
	if def != nil {
		formatted = def.FormattedName()
	}

	if badge == "" {
		badge = app.Flair
	} else if err := s.checkBadge(ctx, badge); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, app.User)
	if err != nil {
		return nil, err
	}
	current, _ := user.FlairFor(app.Subject)
	state := models.FlairState{
		Text:     current.Text,
		CSSClass: s.composer.MergeBadge(current.CSSClass, badge, app.Subject),
	}

	if err := s.platform.SetFlair(ctx, s.cred, app.User, state.CSSClass, state.Text, app.Subject); err != nil {
		s.metrics.IncApplications("failed")
		return nil, dependency("set flair", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dependency("save flair", s.users.SetFlairState(gctx, app.User, app.Subject, state))
	})
	g.Go(func() error {
		body := fmt.Sprintf("Your application for %s flair on /r/%s has been approved.", formatted, app.Subject)
		return dependency("notify user", s.platform.SendPrivateMessage(gctx, s.cred, notificationTitle, body, app.User))
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncApplications("failed")
		return nil, err
	}

	if err := s.apps.DeleteApplication(ctx, app.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, dependency("delete application", err)
	}

	s.metrics.IncApplications("approved")
	s.audit.Record(models.ModerationEvent{
		Type:      models.EventFlairAppApproved,
		User:      app.User,
		Content:   fmt.Sprintf("/u/%s changed %s's flair to %s", caller.Name, app.User, state.CSSClass),
		CreatedAt: s.now(),
	})
	return app, nil
}

func (s *FlairService) checkBadge(ctx context.Context, badge string) error {
	if badge == flair.InvolvementBadge {
		return nil
	}
	_, err := s.flairs.GetFlair(ctx, badge)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnexpectedBadge, badge)
	}
	return dependency("get flair", err)
}

func (s *FlairService) SetText(ctx context.Context, caller Caller, trades, exchange string) (*TextResult, error) {
	parsed, err := flair.Validate(trades, exchange)
	if err != nil {
		s.metrics.IncTextChanges("invalid")
		return nil, err
	}

	if err := s.checkCooldown(ctx, caller.Name); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, caller.Name)
	if err != nil {
		return nil, err
	}

	det := s.detect(ctx, caller, parsed.FriendCodes, user.LoggedFriendCodes)
	logged := union(parsed.FriendCodes, user.LoggedFriendCodes)

	tradesState := models.FlairState{Text: parsed.Trades, CSSClass: defaultTradesClass}
	if st, ok := user.FlairFor(s.conf.TradesSubject); ok && st.CSSClass != "" {
		tradesState.CSSClass = st.CSSClass
	}
	exchangeState := models.FlairState{Text: parsed.Exchange}
	if st, ok := user.FlairFor(s.conf.ExchangeSubject); ok {
		exchangeState.CSSClass = strings.Replace(st.CSSClass, "2", "", 1)
	}

	report := det.ShouldReport()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pushFlair(gctx, caller.Name, s.conf.TradesSubject, tradesState) })
	g.Go(func() error { return s.pushFlair(gctx, caller.Name, s.conf.ExchangeSubject, exchangeState) })
	g.Go(func() error {
		return dependency("save friend codes", s.users.SetLoggedFriendCodes(gctx, caller.Name, logged))
	})
	if report {
		r := flair.BuildReport(flair.ReportInput{
			User:        caller.Name,
			Trades:      parsed.Trades,
			Exchange:    parsed.Exchange,
			TradesSub:   s.conf.TradesSubject,
			ExchangeSub: s.conf.ExchangeSubject,
			TotalCodes:  len(parsed.FriendCodes),
			Detection:   det,
		})
		g.Go(func() error {
			return dependency("send report", s.platform.SendPrivateMessage(gctx, s.cred, r.Subject, r.Body, s.conf.ReportRecipient))
		})
		g.Go(func() error {
			return dependency("add usernote", s.platform.AddUsernote(gctx, s.cred, models.Usernote{
				Mod:      flair.NoteTool,
				Subject:  s.conf.NoteSubject,
				User:     caller.Name,
				Note:     r.Note,
				Category: flair.NoteCategory,
			}))
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncTextChanges("failed")
		return nil, err
	}

	now := s.now()
	s.changeMu.Lock()
	s.lastChange[caller.Name] = now
	s.changeMu.Unlock()

	s.audit.Record(
		models.ModerationEvent{
			Type:      models.EventFlairTextChange,
			User:      caller.Name,
			Content:   fmt.Sprintf("Changed %s flair text to: %s. %s", s.conf.TradesSubject, parsed.Trades, flair.IPTag(caller.IP)),
			CreatedAt: now,
		},
		models.ModerationEvent{
			Type:      models.EventFlairTextChange,
			User:      caller.Name,
			Content:   fmt.Sprintf("Changed %s flair text to: %s. %s", s.conf.ExchangeSubject, parsed.Exchange, flair.IPTag(caller.IP)),
			CreatedAt: now,
		},
	)
	s.countSignals(det)
	s.metrics.IncTextChanges("changed")
	if report {
		s.logger.Infof(providers.TypeAudit, "Reported /u/%s to %s", caller.Name, s.conf.ReportRecipient)
	}

	return &TextResult{
		User:        caller.Name,
		Trades:      tradesState,
		Exchange:    exchangeState,
		FriendCodes: logged,
		Reported:    report,
		Detection:   det,
	}, nil
}

func (s *FlairService) pushFlair(ctx context.Context, user, subject string, state models.FlairState) error {
	if err := s.platform.SetFlair(ctx, s.cred, user, state.CSSClass, state.Text, subject); err != nil {
		return dependency("set "+subject+" flair", err)
	}
	return dependency("save "+subject+" flair", s.users.SetFlairState(ctx, user, subject, state))
}

// checkCooldown fails closed: an unreadable event log rejects the change.
func (s *FlairService) checkCooldown(ctx context.Context, user string) error {
	var last time.Time
	ev, err := s.events.LatestEvent(ctx, models.EventFlairTextChange, user)
	switch {
	case err == nil:
		last = ev.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return dependency("latest text change", err)
	}

	now := s.now()
	s.changeMu.Lock()
	s.pruneChanges(now)
	if t, ok := s.lastChange[user]; ok && t.After(last) {
		last = t
	}
	s.changeMu.Unlock()

	if !last.IsZero() && now.Before(last.Add(s.conf.TextCooldown)) {
		s.metrics.IncTextChanges("rate_limited")
		return ErrRateLimited
	}
	return nil
}

// pruneChanges drops entries whose cooldown has passed; the event store
// covers them from then on. Callers hold changeMu.
func (s *FlairService) pruneChanges(now time.Time) {
	for user, t := range s.lastChange {
		if !now.Before(t.Add(s.conf.TextCooldown)) {
			delete(s.lastChange, user)
		}
	}
}

// detect never fails the request; lookups that error count as no signal.
func (s *FlairService) detect(ctx context.Context, caller Caller, codes, logged []string) flair.Detection {
	var (
		banned   []models.BannedUser
		ipEvents []models.ModerationEvent
		g        errgroup.Group
	)
	g.Go(func() error {
		var err error
		if banned, err = s.users.ListBannedUsers(ctx); err != nil {
			s.logger.Warnf(providers.TypeAudit, "Banned user lookup failed for /u/%s: %s", caller.Name, err)
			banned = nil
		}
		return nil
	})
	if caller.IP != "" {
		g.Go(func() error {
			var err error
			if ipEvents, err = s.events.FindEventsByContent(ctx, flair.IPTag(caller.IP)); err != nil {
				s.logger.Warnf(providers.TypeAudit, "IP lookup failed for /u/%s: %s", caller.Name, err)
				ipEvents = nil
			}
			return nil
		})
	}
	_ = g.Wait()

	return s.detector.Detect(flair.DetectInput{
		Requester: caller.Name,
		IP:        caller.IP,
		Codes:     codes,
		Logged:    logged,
		Banned:    banned,
		IPEvents:  ipEvents,
	})
}

func (s *FlairService) countSignals(det flair.Detection) {
	if len(det.FlaggedInvalid) > 0 {
		s.metrics.IncAbuseSignals("invalid")
	}
	if len(det.SimilarToBanned) > 0 {
		s.metrics.IncAbuseSignals("similar")
	}
	if len(det.IdenticalToBanned) > 0 {
		s.metrics.IncAbuseSignals("identical")
	}
	if len(det.BannedAltUsers) > 0 {
		s.metrics.IncAbuseSignals("alt")
	}
}

func (s *FlairService) GetApps(ctx context.Context) ([]models.Application, error) {
	apps, err := s.apps.ListApplications(ctx)
	if err != nil {
		return nil, dependency("list applications", err)
	}
	return apps, nil
}

// RefreshClaim pulls the caller's live flair from the platform into the
// store and returns what the caller's session should now say.
func (s *FlairService) RefreshClaim(ctx context.Context, caller Caller) (*Claim, error) {
	user, err := s.loadUser(ctx, caller.Name)
	if err != nil {
		return nil, err
	}

	subjects := []string{s.conf.TradesSubject, s.conf.ExchangeSubject}
	states := make([]*models.FlairState, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	for i, subject := range subjects {
		g.Go(func() error {
			st, ok, err := s.platform.GetFlair(gctx, s.cred, caller.Name, subject)
			if err != nil {
				return dependency("get "+subject+" flair", err)
			}
			if !ok {
				return nil
			}
			states[i] = &st
			return dependency("save "+subject+" flair", s.users.SetFlairState(gctx, caller.Name, subject, st))
		})
	}
	var (
		defs []models.FlairDefinition
		apps []models.Application
	)
	g.Go(func() error {
		var err error
		defs, err = s.flairs.ListFlairs(gctx)
		return dependency("list flairs", err)
	})
	g.Go(func() error {
		var err error
		apps, err = s.apps.ListApplications(gctx)
		return dependency("list applications", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, st := range states {
		if st != nil {
			user.SetFlair(subjects[i], *st)
		}
	}

	claim := &Claim{
		User:    caller.Name,
		IsMod:   s.isModerator(user),
		Flairs:  []string{},
		Pending: []models.Application{},
	}
	for _, def := range flair.CurrentFlairs(defs, user) {
		claim.Flairs = append(claim.Flairs, def.Name)
	}
	for _, app := range apps {
		if app.User == caller.Name {
			claim.Pending = append(claim.Pending, app)
		}
	}
	return claim, nil
}

// isModerator reads moderator status from the stored user, never from the
// caller's token, so a revoked moderator loses access on the next refresh.
// Configured moderators are always granted it.
func (s *FlairService) isModerator(user *models.User) bool {
	if user.IsMod {
		return true
	}
	return slices.ContainsFunc(s.moderators, func(name string) bool {
		return strings.EqualFold(name, user.Name)
	})
}

func (s *FlairService) getApplication(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.GetApplication(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, dependency("get application", err)
	}
	return app, nil
}

// loadUser treats an unknown user as one with no history.
func (s *FlairService) loadUser(ctx context.Context, name string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.User{Name: name}, nil
	}
	if err != nil {
		return nil, dependency("get user", err)
	}
	return user, nil
}

// union returns codes followed by the logged codes not already in it.
func union(codes, logged []string) []string {
	out := slices.Clone(codes)
	for _, fc := range logged {
		if !slices.Contains(out, fc) {
			out = append(out, fc)
		}
	}
	return out
}
