// Package session finds the activity log stream that belongs to the user's
// current conversation.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sokinpui/vibedoctor/internal/jsonl"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
)

// DefaultTail is how many trailing entries of each stream are inspected.
const DefaultTail = 5

var (
	// ErrNotFound is returned when no stream has a matching user message.
	ErrNotFound = errors.New("no session matches the search text")
	// ErrLogRootMissing is returned when the log root does not exist.
	ErrLogRootMissing = errors.New("log root not found")
)

// Locator scans <Root>/<project>/<session>.jsonl streams.
type Locator struct {
	Root string
	Tail int
}

// NewLocator creates a Locator over root. A non-positive tail uses DefaultTail.
func NewLocator(root string, tail int) *Locator {
	if tail <= 0 {
		tail = DefaultTail
	}
	return &Locator{Root: root, Tail: tail}
}

// Locate returns the stream whose most recent user message containing
// search (case-insensitively) is the newest across all streams.
func (l *Locator) Locate(search string) (model.Session, error) {
	streams, err := l.Streams()
	if err != nil {
		return model.Session{}, err
	}

	needle := strings.ToLower(search)
	var best model.Session
	found := false
	for _, path := range streams {
		candidate, ok := l.scan(path, needle)
		if !ok {
			continue
		}
		if !found || newer(candidate, best) {
			best = candidate
			found = true
		}
	}

	if !found {
		return model.Session{}, ErrNotFound
	}
	return best, nil
}

// newer reports whether a beats b. Equal timestamps go to the
// lexicographically smaller stream path.
func newer(a, b model.Session) bool {
	if c := a.MatchedTimestamp.Compare(b.MatchedTimestamp); c != 0 {
		return c > 0
	}
	return a.Path < b.Path
}

// Streams lists every candidate stream under the root, sorted by path.
func (l *Locator) Streams() ([]string, error) {
	info, err := os.Stat(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrLogRootMissing, l.Root)
		}
		return nil, fmt.Errorf("could not access log root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrLogRootMissing, l.Root)
	}

	projects, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("could not list log root: %w", err)
	}

	var streams []string
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		projectDir := filepath.Join(l.Root, project.Name())
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			ui.Warning("Could not list %s: %v", projectDir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
				continue
			}
			streams = append(streams, filepath.Join(projectDir, entry.Name()))
		}
	}
	sort.Strings(streams)
	return streams, nil
}

// scan checks the tail of one stream and returns the latest matching user
// message as a session.
func (l *Locator) scan(path, needle string) (model.Session, bool) {
	lines, err := jsonl.TailLines(path, l.Tail)
	if err != nil {
		ui.Warning("Error reading %s: %v", path, err)
		return model.Session{}, false
	}

	var found model.Session
	ok := false
	for _, line := range lines {
		if !gjson.ValidBytes(line) {
			continue
		}
		entry := gjson.ParseBytes(line)
		if !isUserMessage(entry) {
			continue
		}
		if !strings.Contains(strings.ToLower(messageText(entry.Get("message.content"))), needle) {
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, entry.Get("timestamp").String())
		if err != nil {
			continue
		}
		if ok && !ts.After(found.MatchedTimestamp) {
			continue
		}

		streamID := entry.Get("sessionId").String()
		if streamID == "" {
			streamID = strings.TrimSuffix(filepath.Base(path), ".jsonl")
		}
		found = model.Session{
			StreamID:         streamID,
			Path:             path,
			WorkingDirectory: entry.Get("cwd").String(),
			MatchedTimestamp: ts,
		}
		ok = true
	}
	return found, ok
}

func isUserMessage(entry gjson.Result) bool {
	return entry.Get("type").String() == "user" &&
		entry.Get("message.role").String() == "user" &&
		entry.Get("message.content").Exists()
}

// messageText flattens string content or the text parts of array content.
func messageText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	if !content.IsArray() {
		return ""
	}
	var parts []string
	for _, part := range content.Array() {
		if part.Get("type").String() == "text" {
			parts = append(parts, part.Get("text").String())
		}
	}
	return strings.Join(parts, " ")
}
