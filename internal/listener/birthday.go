package listener

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/LeBulldoge/kagura/internal/backoff"
	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/rest"
	"github.com/bwmarrin/discordgo"
)

const BirthdayLayout = "02-01-2006"

// leapReference is a leap year used to validate day and month on their own.
const leapReference = 2000

// Birthday is a calendar date kept apart from its year, so 29-02 is valid
// whatever year the person was born in.
type Birthday struct {
	Day   int
	Month time.Month
	Year  int
}

// ParseBirthday reads a dd-MM-yyyy date.
func ParseBirthday(s string) (Birthday, error) {
	i := strings.LastIndexByte(s, '-')
	if i < 0 || len(s)-i-1 != 4 {
		return Birthday{}, fmt.Errorf("birthday %q is not dd-MM-yyyy", s)
	}

	year := s[i+1:]
	for _, r := range year {
		if r < '0' || r > '9' {
			return Birthday{}, fmt.Errorf("birthday %q has a bad year", s)
		}
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Birthday{}, fmt.Errorf("birthday %q has a bad year: %w", s, err)
	}

	t, err := time.Parse(BirthdayLayout, s[:i+1]+strconv.Itoa(leapReference))
	if err != nil {
		return Birthday{}, fmt.Errorf("birthday %q: %w", s, err)
	}

	return Birthday{Day: t.Day(), Month: t.Month(), Year: y}, nil
}

func (b Birthday) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", b.Day, int(b.Month), b.Year)
}

// Display renders the day and month, e.g. "14 July".
func (b Birthday) Display() string {
	return time.Date(leapReference, b.Month, b.Day, 0, 0, 0, 0, time.UTC).Format("2 January")
}

// After reports whether the birthday lies after t's calendar day.
func (b Birthday) After(t time.Time) bool {
	y, m, d := t.Date()
	if b.Year != y {
		return b.Year > y
	}
	if b.Month != m {
		return b.Month > m
	}
	return b.Day > d
}

// On reports whether the birthday is celebrated on ref's day.
// Feb 29 birthdays are observed on Feb 28 in non-leap years.
func (b Birthday) On(ref time.Time) bool {
	month, day := b.Month, b.Day
	if month == time.February && day == 29 && !isLeap(ref.Year()) {
		day = 28
	}
	return ref.Month() == month && ref.Day() == day
}

// birthdayMatches reports whether a stored birthday falls on ref's day.
func birthdayMatches(birthday string, ref time.Time) bool {
	b, err := ParseBirthday(birthday)
	if err != nil {
		return false
	}
	return b.On(ref)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// StartBirthdays scans once right away and then every interval until ctx
// is done.
func (s *Set) StartBirthdays(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		s.ScanBirthdays(ctx, s.now())

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.ScanBirthdays(ctx, t)
			}
		}
	}()
}

// ScanBirthdays syncs the birthday role of every configured guild with the
// day of now in the configured timezone. Failures are logged, never
// returned, so one broken guild does not stop the others.
func (s *Set) ScanBirthdays(ctx context.Context, now time.Time) {
	guilds, err := s.store.BirthdayGuilds(ctx)
	if err != nil {
		s.logger.Error("failed listing birthday guilds", "err", err)
		return
	}

	ref := now.In(s.opts.BirthdayLocation)
	for _, cfg := range guilds {
		if ctx.Err() != nil {
			return
		}
		if err := s.syncGuildBirthdays(ctx, cfg, ref); err != nil {
			s.logger.Error("birthday sync failed", "guild", cfg.ID, "err", err)
		}
	}
}

func (s *Set) syncGuildBirthdays(ctx context.Context, cfg database.GuildConfig, ref time.Time) error {
	if s.ClientFor == nil {
		return fmt.Errorf("no client resolver for guild %s", cfg.ID)
	}
	c := s.ClientFor(cfg.ID)
	if c == nil {
		return nil
	}

	s.birthdayMu.Lock()
	defer s.birthdayMu.Unlock()

	birthdays, err := s.store.GuildBirthdays(ctx, cfg.ID)
	if err != nil {
		return err
	}
	holders, err := s.store.BirthdayHolders(ctx, cfg.ID)
	if err != nil {
		return err
	}

	celebrating := make([]string, 0)
	for _, b := range birthdays {
		if birthdayMatches(b.Birthday, ref) {
			celebrating = append(celebrating, b.UserID)
		}
	}

	for _, userID := range holders {
		if slices.Contains(celebrating, userID) {
			continue
		}

		_, err := c.Member(cfg.ID, userID)
		if rest.CheckDiscordErrCode(err, discordgo.ErrCodeUnknownMember) {
			if err := s.store.RemoveBirthdayHolder(ctx, cfg.ID, userID, true); err != nil {
				return err
			}
			s.logger.Info("dropped stale birthday holder", "guild", cfg.ID, "user", userID)
			continue
		}

		s.queueRevoke(c, cfg, userID)
	}

	for _, userID := range celebrating {
		if slices.Contains(holders, userID) {
			continue
		}

		s.queueGrant(c, cfg, userID)
	}

	return nil
}

// claim marks a role action as queued. Holder rows only change once the
// action succeeds, so until then later scans would derive it again.
// Callers hold birthdayMu.
func (s *Set) claim(key string) bool {
	if _, ok := s.inflight[key]; ok {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

// settle records the outcome of a role action and releases its claim in one
// step, so a scan sees either the claim or the updated holders.
func (s *Set) settle(key string, record func() error) error {
	s.birthdayMu.Lock()
	defer s.birthdayMu.Unlock()

	delete(s.inflight, key)
	return record()
}

func (s *Set) queueRevoke(c rest.Client, cfg database.GuildConfig, userID string) {
	guildID, roleID := cfg.ID, cfg.BirthdayRole
	key := "revoke:" + guildID + "/" + userID
	if !s.claim(key) {
		return
	}

	err := s.scheduler.Enqueue(backoff.QueueRoleRevokes, backoff.Action{
		Name:   "birthday-revoke",
		Target: guildID + "/" + userID,
		Run: func(ctx context.Context) error {
			err := c.RemoveRole(guildID, userID, roleID)
			return s.settle(key, func() error {
				stale := rest.CheckDiscordErrCode(err, discordgo.ErrCodeUnknownMember)
				if err != nil && !stale {
					return err
				}
				return s.store.RemoveBirthdayHolder(ctx, guildID, userID, stale)
			})
		},
	})
	if err != nil {
		delete(s.inflight, key)
		s.logger.Warn("could not queue birthday revoke", "guild", guildID, "user", userID, "err", err)
	}
}

func (s *Set) queueGrant(c rest.Client, cfg database.GuildConfig, userID string) {
	guildID, roleID, channelID := cfg.ID, cfg.BirthdayRole, cfg.BirthdayChannel
	key := "grant:" + guildID + "/" + userID
	if !s.claim(key) {
		return
	}

	err := s.scheduler.Enqueue(backoff.QueueRoleGrants, backoff.Action{
		Name:   "birthday-grant",
		Target: guildID + "/" + userID,
		Run: func(ctx context.Context) error {
			err := c.AddRole(guildID, userID, roleID)
			return s.settle(key, func() error {
				if err != nil {
					return err
				}
				if err := s.store.AddBirthdayHolder(ctx, guildID, userID); err != nil {
					return err
				}
				s.queueWish(c, guildID, channelID, userID)
				return nil
			})
		},
	})
	if err != nil {
		delete(s.inflight, key)
		s.logger.Warn("could not queue birthday grant", "guild", guildID, "user", userID, "err", err)
	}
}

func (s *Set) queueWish(c rest.Client, guildID, channelID, userID string) {
	err := s.scheduler.Enqueue(backoff.QueueMessages, backoff.Action{
		Name:   "birthday-message",
		Target: channelID,
		Run: func(context.Context) error {
			_, err := c.SendMessage(channelID, "🎂 Happy birthday <@"+userID+">!")
			return err
		},
	})
	if err != nil {
		s.logger.Warn("could not queue birthday message", "guild", guildID, "user", userID, "err", err)
	}
}
