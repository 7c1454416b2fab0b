package listener

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LeBulldoge/kagura/internal/backoff"
	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/LeBulldoge/kagura/internal/dispatch"
	"github.com/LeBulldoge/kagura/internal/ratelimit"
)

// Store is the part of the configuration store the passive listeners use.
type Store interface {
	GuildConfig(ctx context.Context, guildID string) (database.GuildConfig, error)
	DisableSlowMode(ctx context.Context, guildID string) error
	ClearAutorole(ctx context.Context, guildID string) error

	BirthdayGuilds(ctx context.Context) ([]database.GuildConfig, error)
	GuildBirthdays(ctx context.Context, guildID string) ([]database.Birthday, error)
	BirthdayHolders(ctx context.Context, guildID string) ([]string, error)
	AddBirthdayHolder(ctx context.Context, guildID string, userID string) error
	RemoveBirthdayHolder(ctx context.Context, guildID string, userID string, stale bool) error

	RewardKey(ctx context.Context, userID string) (string, error)
	SaveRewardKey(ctx context.Context, userID string, key string) error
}

type Options struct {
	SlowModeLimit  int
	SlowModeWindow time.Duration

	HubGuildID    string
	PatreonRoleID string

	BirthdayLocation *time.Location
}

// Set is the fixed group of listeners run on every qualifying event,
// whether or not a command matched.
type Set struct {
	store     Store
	scheduler *backoff.Scheduler
	limiter   *ratelimit.Limiter
	opts      Options

	// ClientFor resolves the outbound client of the shard owning a guild.
	// Periodic tasks use it since they have no triggering event.
	ClientFor func(guildID string) rest.Client

	// notices holds one-shot per-guild notifications already sent.
	notices sync.Map

	// birthdayMu guards inflight, the birthday role actions queued but not
	// yet settled.
	birthdayMu sync.Mutex
	inflight   map[string]struct{}

	now    func() time.Time
	logger *slog.Logger
}

func NewSet(store Store, scheduler *backoff.Scheduler, opts Options) *Set {
	if opts.SlowModeLimit < 1 {
		opts.SlowModeLimit = 5
	}
	if opts.SlowModeWindow <= 0 {
		opts.SlowModeWindow = 5 * time.Second
	}
	if opts.BirthdayLocation == nil {
		opts.BirthdayLocation = time.UTC
	}

	return &Set{
		store:     store,
		scheduler: scheduler,
		limiter:   ratelimit.New(opts.SlowModeLimit, opts.SlowModeWindow),
		opts:      opts,
		inflight:  make(map[string]struct{}),
		now:       time.Now,
		logger:    slog.Default().WithGroup("listener"),
	}
}

func (s *Set) AddLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	s.logger = logger
}

// Register wires every listener into the dispatcher's kind table.
func (s *Set) Register(d *dispatch.Dispatcher) {
	d.Handle(dispatch.KindMessageCreate, "link-protection", s.LinkProtection)
	d.Handle(dispatch.KindMessageCreate, "slow-mode", s.SlowMode)
	d.Handle(dispatch.KindGuildMemberAdd, "join", s.MemberJoin)
	d.Handle(dispatch.KindGuildMemberRemove, "leave", s.MemberLeave)
	d.Handle(dispatch.KindGuildMemberUpdate, "patreon-keys", s.PatreonKeys)
	d.Handle(dispatch.KindMessageUpdate, "mod-log", s.ModLog)
	d.Handle(dispatch.KindMessageDelete, "mod-log", s.ModLog)
	d.Handle(dispatch.KindGuildBanAdd, "mod-log", s.ModLog)
	d.Handle(dispatch.KindGuildBanRemove, "mod-log", s.ModLog)
	d.Handle(dispatch.KindStatusChange, "status", s.Status)
}

// notifyOnce reports true the first time it is called for key.
func (s *Set) notifyOnce(key string) bool {
	_, loaded := s.notices.LoadOrStore(key, struct{}{})
	return !loaded
}

// ResetGuild forgets one-shot notices for guildID, used when a feature that
// was disabled on permission loss is turned back on.
func (s *Set) ResetGuild(guildID string) {
	for _, prefix := range []string{noticeLinkPerm, noticeSlowModeOff, noticeAutorole} {
		s.notices.Delete(prefix + guildID)
	}
}

// PruneLimiter drops idle rate limiter windows.
func (s *Set) PruneLimiter() int {
	return s.limiter.Sweep()
}

const (
	noticeLinkPerm    = "link-perm:"
	noticeSlowModeOff = "slowmode-off:"
	noticeAutorole    = "autorole:"
)
