// Package digest turns the open threads of a repository into the notification
// listing every thread still waiting for a maintainer.
package digest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"unanswered-notifier/pkg/models"
)

// Policy selects which comment of a thread decides whether it needs an answer.
type Policy int

const (
	// PolicyFirst consults the earliest comment of the thread.
	PolicyFirst Policy = iota
	// PolicyLast consults the most recent comment of the thread.
	PolicyLast
)

func (p Policy) String() string {
	switch p {
	case PolicyLast:
		return "last"
	default:
		return "first"
	}
}

// ParsePolicy converts a configuration value into a Policy. Empty means PolicyFirst.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "first":
		return PolicyFirst, nil
	case "last":
		return PolicyLast, nil
	default:
		return PolicyFirst, fmt.Errorf("unknown comment policy %q", s)
	}
}

// Maintainers is the allow-list of logins whose comments never raise an alert.
type Maintainers interface {
	IsMaintainer(login string) bool
}

const day = 24 * time.Hour

var titleEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeTitle escapes the HTML special characters of a thread title.
func EscapeTitle(title string) string {
	return titleEscaper.Replace(title)
}

// AgeInDays returns the number of whole days between t and now, floored.
// now is taken in t's location.
func AgeInDays(now, t time.Time) int {
	d := now.In(t.Location()).Sub(t)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// Collect returns a record for every thread whose selected comment was written
// by someone outside the maintainer list. Issues come before pull requests.
// A comment without author counts as written by a non-maintainer.
func Collect(threads *models.RepositoryThreads, maintainers Maintainers, policy Policy) []models.ThreadRecord {
	var records []models.ThreadRecord
	for _, thread := range threads.All() {
		if len(thread.Comments) == 0 {
			continue
		}

		comment := thread.Comments[0]
		if policy == PolicyLast {
			comment = thread.Comments[len(thread.Comments)-1]
		}

		author := comment.AuthorLogin()
		if comment.Author != nil && maintainers.IsMaintainer(author) {
			continue
		}

		records = append(records, models.ThreadRecord{
			Title:       thread.Title,
			Author:      author,
			URL:         comment.URL,
			PublishedAt: comment.PublishedAt,
		})
	}
	return records
}

// Lines renders the records, oldest first. Entries of the same age keep their order.
func Lines(records []models.ThreadRecord, now time.Time) []models.AlertLine {
	lines := make([]models.AlertLine, 0, len(records))
	for _, r := range records {
		age := AgeInDays(now, r.PublishedAt)
		lines = append(lines, models.AlertLine{
			AgeInDays: age,
			Text:      fmt.Sprintf(`➔ (%d days) %s  <a href="%s">%s</a>`, age, r.Author, r.URL, EscapeTitle(r.Title)),
		})
	}
	slices.SortStableFunc(lines, func(a, b models.AlertLine) int {
		return b.AgeInDays - a.AgeInDays
	})
	return lines
}

// Build produces the digest of one repository, or nil when no thread needs an answer.
func Build(owner, name, chat string, threads *models.RepositoryThreads, maintainers Maintainers, now time.Time, policy Policy) *models.Digest {
	records := Collect(threads, maintainers, policy)
	if len(records) == 0 {
		return nil
	}
	return &models.Digest{
		Owner: owner,
		Name:  name,
		Chat:  chat,
		Lines: Lines(records, now),
	}
}
