package models

import (
	"fmt"
	"strings"
	"time"
)

// GhostLogin is the login GitHub shows for comments whose author account was deleted
const GhostLogin = "ghost"

// Actor represents the author of a comment
type Actor struct {
	Login string `json:"login"`
}

// Comment represents a single issue or pull request comment
type Comment struct {
	Author      *Actor    `json:"author"` // nil when the account no longer exists
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// AuthorLogin returns the comment author's login, or GhostLogin when the author is unknown
func (c Comment) AuthorLogin() string {
	if c.Author == nil || c.Author.Login == "" {
		return GhostLogin
	}
	return c.Author.Login
}

// Thread represents an open issue or pull request together with its comments.
// Comments are ordered oldest to newest, as delivered by the API.
type Thread struct {
	Title    string
	Comments []Comment
}

// RepositoryThreads holds the open threads fetched for one repository
type RepositoryThreads struct {
	Issues       []Thread
	PullRequests []Thread
}

// All returns issues followed by pull requests, in source order
func (r *RepositoryThreads) All() []Thread {
	all := make([]Thread, 0, len(r.Issues)+len(r.PullRequests))
	all = append(all, r.Issues...)
	return append(all, r.PullRequests...)
}

// ThreadRecord is a thread whose selected comment was written outside the maintainer set
type ThreadRecord struct {
	Title       string
	Author      string
	URL         string
	PublishedAt time.Time
}

// AlertLine is one rendered digest entry
type AlertLine struct {
	AgeInDays int
	Text      string
}

// Digest is the notification message for a single repository
type Digest struct {
	Owner string
	Name  string
	Chat  string
	Lines []AlertLine
}

// Header returns the digest's first line
func (d *Digest) Header() string {
	return fmt.Sprintf("<b>🚨 List of unanswered issues for %s/%s</b>", d.Owner, d.Name)
}

// Text renders the full message: header, blank line, then one alert per line
func (d *Digest) Text() string {
	var sb strings.Builder
	sb.WriteString(d.Header())
	sb.WriteString("\n\n")
	for i, line := range d.Lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line.Text)
	}
	return sb.String()
}
