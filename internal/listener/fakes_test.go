package listener

import (
	"context"
	"slices"
	"sync"

	"github.com/LeBulldoge/kagura/internal/database"
	"github.com/LeBulldoge/kagura/internal/discord/rest/resttest"
)

func snapshot(c *resttest.Client) (deleted []string, msgs, dms []resttest.Sent, added, removed []resttest.RoleCall) {
	calls := c.Calls()
	return calls.Deleted, calls.Sent, calls.DMs, calls.Added, calls.Removed
}

type holderKey struct{ guild, user string }

type fakeStore struct {
	mu sync.Mutex

	configs   map[string]database.GuildConfig
	birthdays map[string][]database.Birthday
	holders   map[holderKey]bool
	keys      map[string]string

	disableCalls  int
	autoroleClear int
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		configs:   map[string]database.GuildConfig{},
		birthdays: map[string][]database.Birthday{},
		holders:   map[holderKey]bool{},
		keys:      map[string]string{},
	}
}

func (f *fakeStore) GuildConfig(_ context.Context, guildID string) (database.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[guildID]; ok {
		return cfg, nil
	}
	return database.GuildConfig{ID: guildID}, nil
}

func (f *fakeStore) DisableSlowMode(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableCalls++
	cfg := f.configs[guildID]
	cfg.SlowMode = false
	f.configs[guildID] = cfg
	return nil
}

func (f *fakeStore) ClearAutorole(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autoroleClear++
	cfg := f.configs[guildID]
	cfg.Autorole = ""
	f.configs[guildID] = cfg
	return nil
}

func (f *fakeStore) BirthdayGuilds(context.Context) ([]database.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := []database.GuildConfig{}
	for _, cfg := range f.configs {
		if cfg.HasBirthdaySetup() {
			res = append(res, cfg)
		}
	}
	return res, nil
}

func (f *fakeStore) GuildBirthdays(_ context.Context, guildID string) ([]database.Birthday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.birthdays[guildID]), nil
}

func (f *fakeStore) BirthdayHolders(_ context.Context, guildID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := []string{}
	for k := range f.holders {
		if k.guild == guildID {
			res = append(res, k.user)
		}
	}
	slices.Sort(res)
	return res, nil
}

func (f *fakeStore) AddBirthdayHolder(_ context.Context, guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holders[holderKey{guildID, userID}] = true
	return nil
}

func (f *fakeStore) RemoveBirthdayHolder(_ context.Context, guildID, userID string, stale bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holders, holderKey{guildID, userID})
	if stale {
		f.birthdays[guildID] = slices.DeleteFunc(f.birthdays[guildID], func(b database.Birthday) bool {
			return b.UserID == userID
		})
	}
	return nil
}

func (f *fakeStore) RewardKey(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[userID], nil
}

func (f *fakeStore) SaveRewardKey(_ context.Context, userID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[userID] = key
	return nil
}
