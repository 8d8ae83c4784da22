// internal/app/flow_query.go
package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"interaction_log_bot/internal/domain/session"
)

const (
	minReportDays = 1
	maxReportDays = 30
)

// advanceCustomerList handles one reply inside the follower/month query.
func (e *FlowEngine) advanceCustomerList(ctx context.Context, st *session.State, text string) string {
	switch st.Step {
	case stepAwaitingFollower:
		follower := strings.TrimSpace(text)
		if follower == "" {
			return "Which follower?"
		}
		st.Fields["follower"] = follower
		st.Step = stepAwaitingMonth
		e.sessions.Put(st)
		return "Which month? Reply YYYY-MM or \"current\"."

	case stepAwaitingMonth:
		year, month, ok := parseMonth(text, e.now())
		if !ok {
			// Malformed input re-prompts the same step without advancing.
			return "I did not understand that month. Reply YYYY-MM or \"current\"."
		}

		now := e.now()
		if allowed, wait := e.customersLimiter.check(st.UserID, now); !allowed {
			// Rejected inside the cooldown: no lookup, no state mutation.
			return fmt.Sprintf("Please wait %ds before the next query.", int(math.Ceil(wait.Seconds())))
		}

		follower := st.Fields["follower"]
		cases, err := e.cases.CustomersForMonth(ctx, follower, year, month)
		if err != nil {
			e.logger.WithError(err).WithField("user_id", st.UserID).Error("Customer list query failed")
			e.sessions.Delete(st.UserID, session.FlowCustomerList)
			return "The query failed. Please try again."
		}

		e.sessions.Delete(st.UserID, session.FlowCustomerList)
		e.customersLimiter.arm(st.UserID, now)

		period := fmt.Sprintf("%04d-%02d", year, int(month))
		if len(cases) == 0 {
			return fmt.Sprintf("No customers found for %s in %s.", follower, period)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Customers for %s in %s:\n", follower, period)
		for i, c := range cases {
			name := "(no name)"
			if c.CurrentName.Valid {
				name = c.CurrentName.String
			}
			fmt.Fprintf(&b, "%d. %s (%s) — %s, last update %s, %d event(s)\n",
				i+1, name, c.Phone, caseStatusLine(c), c.LastUpdateDate.Format("2006-01-02"), c.TotalEvents)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	e.sessions.Delete(st.UserID, session.FlowCustomerList)
	return helpText
}

// advanceReportRange handles the single input step of the report query.
func (e *FlowEngine) advanceReportRange(ctx context.Context, st *session.State, text string) string {
	if st.Step != stepAwaitingRange {
		e.sessions.Delete(st.UserID, session.FlowReportRange)
		return helpText
	}

	from, to, ok := parseReportRange(text, e.now())
	if !ok {
		return "I did not understand that period. Reply with a day count (1-30) or one or two dates as YYYY-MM-DD, optionally followed by HH:MM."
	}

	now := e.now()
	if allowed, wait := e.reportLimiter.check(st.UserID, now); !allowed {
		return fmt.Sprintf("Please wait %ds before the next query.", int(math.Ceil(wait.Seconds())))
	}

	summary, err := e.reports.RangeSummary(ctx, from, to)
	if err != nil {
		e.logger.WithError(err).WithField("user_id", st.UserID).Error("Report range query failed")
		e.sessions.Delete(st.UserID, session.FlowReportRange)
		return "The query failed. Please try again."
	}

	e.sessions.Delete(st.UserID, session.FlowReportRange)
	e.reportLimiter.arm(st.UserID, now)
	return summary
}

func caseStatusLine(c *CustomerCase) string {
	if c.CurrentStatus.Valid {
		return c.CurrentStatus.String
	}
	if c.CurrentReason.Valid {
		return "reason " + c.CurrentReason.String
	}
	return "no status"
}

// parseMonth accepts the literal "current" or an explicit YYYY-MM token.
func parseMonth(input string, now time.Time) (int, time.Month, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "current" {
		return now.Year(), now.Month(), true
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// parseReportRange accepts an explicit day count (clamped to [1,30]) or
// one or two YYYY-MM-DD tokens, each optionally followed by HH:MM,
// interpreted as a single day or an inclusive range.
func parseReportRange(input string, now time.Time) (time.Time, time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, time.Time{}, false
	}

	if days, err := strconv.Atoi(s); err == nil {
		if days < minReportDays {
			days = minReportDays
		}
		if days > maxReportDays {
			days = maxReportDays
		}
		end := endOfDay(now)
		start := startOfDay(now).AddDate(0, 0, -(days - 1))
		return start, end, true
	}

	tokens := strings.Fields(s)
	specs, ok := groupDateSpecs(tokens)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	switch len(specs) {
	case 1:
		from, hasTime, ok := parseDateSpec(specs[0])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		if !hasTime {
			from = startOfDay(from)
		}
		return from, endOfDay(from), true
	case 2:
		from, fromHasTime, ok := parseDateSpec(specs[0])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		to, toHasTime, ok := parseDateSpec(specs[1])
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		if !fromHasTime {
			from = startOfDay(from)
		}
		if !toHasTime {
			to = endOfDay(to)
		}
		if from.After(to) {
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}
	return time.Time{}, time.Time{}, false
}

// groupDateSpecs splits tokens into at most two "date [time]" groups.
func groupDateSpecs(tokens []string) ([][]string, bool) {
	var specs [][]string
	for _, tok := range tokens {
		if looksLikeDate(tok) {
			specs = append(specs, []string{tok})
			continue
		}
		if looksLikeTime(tok) && len(specs) > 0 && len(specs[len(specs)-1]) == 1 {
			specs[len(specs)-1] = append(specs[len(specs)-1], tok)
			continue
		}
		return nil, false
	}
	if len(specs) == 0 || len(specs) > 2 {
		return nil, false
	}
	return specs, true
}

func parseDateSpec(spec []string) (time.Time, bool, bool) {
	date, err := time.Parse("2006-01-02", spec[0])
	if err != nil {
		return time.Time{}, false, false
	}
	if len(spec) == 1 {
		return date, false, true
	}
	tod, err := time.Parse("15:04", spec[1])
	if err != nil {
		return time.Time{}, false, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, date.Location()), true, true
}

func looksLikeDate(tok string) bool {
	_, err := time.Parse("2006-01-02", tok)
	return err == nil
}

func looksLikeTime(tok string) bool {
	_, err := time.Parse("15:04", tok)
	return err == nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
