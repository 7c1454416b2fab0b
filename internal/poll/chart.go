package poll

import (
	"strconv"
	"strings"
)

var (
	empty = "⬛"
	full  = "🔲"
)

const barWidth = 10

// Chart renders the poll as one bar per option.
func (p *Poll) Chart() string {
	counts := p.Counts()

	total := 0
	for _, c := range counts {
		total += c
	}

	var sb strings.Builder
	sb.WriteString("**" + p.Title + "**")
	sb.WriteRune('\n')

	for i, o := range p.Options {
		filled := 0
		if total > 0 {
			filled = counts[i] * barWidth / total
		}

		sb.WriteString(o.Emoji + " " + o.Label + " ")
		sb.WriteString(strings.Repeat(full, filled))
		sb.WriteString(strings.Repeat(empty, barWidth-filled))

		sb.WriteRune(' ')
		sb.WriteString(strconv.Itoa(counts[i]))
		sb.WriteRune('/')
		sb.WriteString(strconv.Itoa(total))
		sb.WriteRune('\n')
	}

	return sb.String()
}
