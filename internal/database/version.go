package database

import (
	"github.com/LeBulldoge/sqlighter/schema"
)

const targetVersion = 3

var versionMap = schema.VersionMap{
	3: schema.Version{
		Up: version3Up,
	},
	2: schema.Version{
		Up: version2Up,
	},
	1: schema.Version{
		Up: version1Up,
	},
}

const version3Up = `CREATE TABLE Quotes (
  guild_id TEXT     NOT NULL,
  user_id  TEXT     NOT NULL,
  text     TEXT     NOT NULL,
  date     DATETIME NOT NULL
);

CREATE INDEX quotes_guild_user ON Quotes (guild_id, user_id);`

// Birthday role bookkeeping
const version2Up = `CREATE TABLE GuildBirthdays (
  guild_id TEXT NOT NULL,
  user_id  TEXT NOT NULL,
  PRIMARY KEY (guild_id, user_id)
);

CREATE TABLE BirthdayHolders (
  guild_id TEXT NOT NULL,
  user_id  TEXT NOT NULL,
  PRIMARY KEY (guild_id, user_id)
);`

// The initial schema
const version1Up = `CREATE TABLE GuildConfigs (
  id                  TEXT    NOT NULL PRIMARY KEY
                              UNIQUE,
  prefix              TEXT    NOT NULL DEFAULT '',
  autorole            TEXT    NOT NULL DEFAULT '',
  join_channel        TEXT    NOT NULL DEFAULT '',
  join_message        TEXT    NOT NULL DEFAULT '',
  leave_channel       TEXT    NOT NULL DEFAULT '',
  leave_message       TEXT    NOT NULL DEFAULT '',
  birthday_channel    TEXT    NOT NULL DEFAULT '',
  birthday_role       TEXT    NOT NULL DEFAULT '',
  modlog_channel      TEXT    NOT NULL DEFAULT '',
  link_protection     INTEGER NOT NULL DEFAULT 0,
  link_exempt_channel TEXT    NOT NULL DEFAULT '',
  slowmode            INTEGER NOT NULL DEFAULT 0,
  slowmode_limit      INTEGER NOT NULL DEFAULT 0,
  slowmode_window     INTEGER NOT NULL DEFAULT 0,
  disabled_commands   TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE Users (
  id         TEXT NOT NULL PRIMARY KEY
                  UNIQUE,
  birthday   TEXT NOT NULL DEFAULT '',
  reward_key TEXT NOT NULL DEFAULT ''
);`
