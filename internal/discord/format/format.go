package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TimeToTimestamp(t time.Time) string {
	var sb strings.Builder
	sb.WriteString("<t:")
	sb.WriteString(strconv.FormatInt(t.Unix(), 10))
	sb.WriteRune('>')

	return sb.String()
}

func GetMemberDisplayName(member *discordgo.Member) string {
	var displayName string
	if len(member.Nick) > 0 {
		displayName = member.Nick
	} else if member.User != nil && len(member.User.GlobalName) > 0 {
		displayName = member.User.GlobalName
	} else if member.User != nil {
		displayName = member.User.Username
	}
	return displayName
}

// Template replaces $(name) placeholders in tpl with vars[name]. Unknown
// placeholders are left as they are.
func Template(tpl string, vars map[string]string) string {
	if !strings.Contains(tpl, "$(") {
		return tpl
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "$("+k+")", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// EmojiComponentFromString reads a unicode emoji or a custom emoji
// mention (<:name:id> or <a:name:id>).
func EmojiComponentFromString(s string) *discordgo.ComponentEmoji {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return &discordgo.ComponentEmoji{Name: s}
	}

	parts := strings.Split(strings.Trim(s, "<>"), ":")
	if len(parts) != 3 {
		return &discordgo.ComponentEmoji{Name: s}
	}

	return &discordgo.ComponentEmoji{
		Animated: parts[0] == "a",
		Name:     parts[1],
		ID:       parts[2],
	}
}
