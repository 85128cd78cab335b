package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// CanonicalDateLayout is how normalized dates are stored
const CanonicalDateLayout = "2006-01-02"

// ErrUnrecognizedDate is returned when no calendar date can be read from an utterance
var ErrUnrecognizedDate = errors.New("unrecognized date")

// DateNormalizer turns free-text date utterances ("this Friday", "the 5th of
// March", "tomorrow") into calendar dates, resolving relative phrasing
// against the current date.
type DateNormalizer struct {
	parser *when.Parser
	loc    *time.Location
	now    func() time.Time
}

// NewDateNormalizer creates a normalizer that resolves dates in loc
func NewDateNormalizer(loc *time.Location) *DateNormalizer {
	if loc == nil {
		loc = time.UTC
	}

	parser := when.New(nil)
	parser.Add(dateRules()...)

	return &DateNormalizer{
		parser: parser,
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock overrides the reference clock
func (d *DateNormalizer) WithClock(now func() time.Time) *DateNormalizer {
	d.now = now
	return d
}

// Normalize reads a date from text relative to today
func (d *DateNormalizer) Normalize(text string) (time.Time, error) {
	return d.NormalizeAt(text, d.now())
}

// NormalizeAt reads a date from text relative to ref. The returned time is
// midnight of the resolved day in the normalizer's location.
func (d *DateNormalizer) NormalizeAt(text string, ref time.Time) (date time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			date, err = time.Time{}, fmt.Errorf("%w: parser panic: %v", ErrUnrecognizedDate, r)
		}
	}()

	phrase := strings.TrimRight(strings.TrimSpace(text), ".!?")
	if phrase == "" {
		return time.Time{}, ErrUnrecognizedDate
	}
	ref = ref.In(d.loc)

	// Natural phrasing first; it also finds dates inside longer sentences
	if res, perr := d.parser.Parse(strings.ToLower(phrase), ref); perr == nil && res != nil {
		return d.startOfDay(res.Time), nil
	}

	// Written-out formats such as "2024-03-05" or "March 5, 2024"
	if t, perr := dateparse.ParseIn(phrase, d.loc); perr == nil && plausibleYear(t, ref) {
		return d.startOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, phrase)
}

// dateRules is the subset of the English rules that yields a calendar day.
// Clock-time rules are left out so "at 3pm" is not read as today, and
// slash dates go to dateparse, which reads them month first.
func dateRules() []rules.Rule {
	return []rules.Rule{
		en.Weekday(rules.Override),
		en.CasualDate(rules.Override),
		&guardedRule{Rule: en.Deadline(rules.Override), accept: deadlineInDays},
		fromNow(),
		&guardedRule{Rule: en.ExactMonthDate(rules.Override), accept: monthWithDay},
	}
}

// guardedRule drops matches that accept rejects and keeps searching the
// rest of the text.
type guardedRule struct {
	rules.Rule
	accept func(*rules.Match) bool
}

func (g *guardedRule) Find(text string) *rules.Match {
	for {
		m := g.Rule.Find(text)
		if m == nil || g.accept(m) {
			return m
		}
		if m.Right <= m.Left {
			return nil
		}
		// blank the rejected span so indexes stay valid for the next search
		text = text[:m.Left] + strings.Repeat(" ", m.Right-m.Left) + text[m.Right:]
	}
}

// monthWithDay rejects a bare month name: "may" is far more often the verb
func monthWithDay(m *rules.Match) bool {
	for i, c := range m.Captures {
		if i != 2 && strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

// deadlineInDays keeps "in 3 days" and "in two weeks"; hours and minutes are
// times, and the month arithmetic in the upstream rule wraps past December.
func deadlineInDays(m *rules.Match) bool {
	if len(m.Captures) < 3 {
		return false
	}
	unit := strings.ToLower(m.Captures[2])
	return strings.HasPrefix(unit, "day") || strings.HasPrefix(unit, "week")
}

// fromNow handles "a week from now" and "3 days from today"
func fromNow() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile("(?i)(?:\\W|^)" +
			"(an?|" + en.INTEGER_WORDS_PATTERN + "|[0-9]+)\\s+" +
			"(days?|weeks?)\\s+from\\s+(?:now|today)" +
			"(?:\\W|$)"),
		Applier: func(m *rules.Match, c *rules.Context, _ *rules.Options, _ time.Time) (bool, error) {
			numStr := strings.ToLower(strings.TrimSpace(m.Captures[0]))
			n, ok := en.INTEGER_WORDS[numStr]
			switch {
			case ok:
			case numStr == "a" || numStr == "an":
				n = 1
			default:
				parsed, err := strconv.Atoi(numStr)
				if err != nil {
					return false, nil
				}
				n = parsed
			}

			day := 24 * time.Hour
			if strings.HasPrefix(strings.ToLower(m.Captures[1]), "week") {
				day *= 7
			}
			c.Duration = time.Duration(n) * day
			return true, nil
		},
	}
}

func (d *DateNormalizer) startOfDay(t time.Time) time.Time {
	t = t.In(d.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, d.loc)
}

// dateparse happily reads bare numbers as years or unix timestamps
func plausibleYear(t, ref time.Time) bool {
	return t.Year() >= ref.Year()-1 && t.Year() <= ref.Year()+10
}

// FormatDate renders the canonical stored form
func FormatDate(t time.Time) string {
	return t.Format(CanonicalDateLayout)
}

// SpokenDate renders a stored date the way it should be read to the caller.
// Values that are not canonical dates are returned unchanged.
func SpokenDate(stored string) string {
	t, err := time.Parse(CanonicalDateLayout, stored)
	if err != nil {
		return stored
	}
	return t.Format("Monday, January 2, 2006")
}
