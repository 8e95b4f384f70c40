package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/runnerr0/inboxlens/internal/logging"
)

// LoaderOptions controls fragment discovery.
type LoaderOptions struct {
	// FragmentPattern is matched inside each conversation directory
	// (defaults to "message*.json").
	FragmentPattern string

	// StickersDir is a directory under the root whose entries are counted as
	// stickers used (defaults to "stickers_used"). It need not exist.
	StickersDir string
}

// Archive is the merged content of an export directory.
type Archive struct {
	conversations []*RawConversation
	byTitle       map[string]*RawConversation

	// Fragments is the number of fragment files read.
	Fragments int

	// StickersUsed is the entry count of the stickers directory, 0 if absent.
	StickersUsed int
}

// Len returns the number of distinct conversations.
func (a *Archive) Len() int {
	return len(a.conversations)
}

// Conversations returns conversations in the order their first fragment was found.
func (a *Archive) Conversations() []*RawConversation {
	return a.conversations
}

// Titles returns conversation titles in first-seen order.
func (a *Archive) Titles() []string {
	titles := make([]string, len(a.conversations))
	for i, c := range a.conversations {
		titles[i] = c.Title
	}
	return titles
}

// Get looks up a conversation by title.
func (a *Archive) Get(title string) (*RawConversation, bool) {
	c, ok := a.byTitle[title]
	return c, ok
}

// merge folds a fragment into the archive. The first fragment for a title
// decides its participants; later fragments only contribute messages.
func (a *Archive) merge(f fragment) {
	a.Fragments++
	if c, ok := a.byTitle[f.Title]; ok {
		c.Messages = append(c.Messages, f.Messages...)
		c.Fragments++
		return
	}
	c := &RawConversation{
		Title:        f.Title,
		Participants: f.Participants,
		Messages:     append([]Message(nil), f.Messages...),
		Fragments:    1,
	}
	a.conversations = append(a.conversations, c)
	a.byTitle[f.Title] = c
}

// Loader reads a chat export laid out as one directory per conversation.
type Loader struct {
	root   string
	opts   LoaderOptions
	logger *logging.Logger
}

// NewLoader creates a Loader rooted at root. A nil logger discards output.
func NewLoader(root string, opts LoaderOptions, logger *logging.Logger) *Loader {
	if opts.FragmentPattern == "" {
		opts.FragmentPattern = "message*.json"
	}
	if opts.StickersDir == "" {
		opts.StickersDir = "stickers_used"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Loader{root: root, opts: opts, logger: logger.Named("archive")}
}

// Load discovers every fragment one level below the root and merges them by
// title. Fragments are visited in lexical path order. Any unreadable or
// undecodable fragment aborts the load with a *MalformedEntryError.
func (l *Loader) Load(ctx context.Context) (*Archive, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open archive %s: %w", l.root, ErrNotDirectory)
	}

	paths, err := l.discover()
	if err != nil {
		return nil, err
	}

	a := &Archive{byTitle: make(map[string]*RawConversation)}
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f, err := readFragment(path)
		if err != nil {
			return nil, &MalformedEntryError{Path: path, Err: err}
		}
		l.logger.Debug(ctx, "fragment read",
			zap.String("path", path),
			zap.String("title", f.Title),
			zap.Int("messages", len(f.Messages)),
		)
		a.merge(f)
	}

	a.StickersUsed, err = countEntries(filepath.Join(l.root, l.opts.StickersDir))
	if err != nil {
		return nil, fmt.Errorf("count stickers: %w", err)
	}

	l.logger.Info(ctx, "archive loaded",
		zap.String("root", l.root),
		zap.Int("fragments", a.Fragments),
		zap.Int("conversations", a.Len()),
		zap.Int("stickers_used", a.StickersUsed),
	)
	return a, nil
}

func readFragment(path string) (fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return fragment{}, err
	}
	defer file.Close()

	var f fragment
	dec := json.NewDecoder(bufio.NewReaderSize(file, 1<<16))
	if err := dec.Decode(&f); err != nil {
		return fragment{}, fmt.Errorf("decode: %w", err)
	}
	return f, nil
}

// countEntries returns the number of entries in dir, or 0 if it does not exist.
func countEntries(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return len(entries), nil
}

// discover lists root/<dir>/<pattern> files, directories and files each in
// lexical order, the same order a shell glob would produce.
func (l *Loader) discover() ([]string, error) {
	if _, err := filepath.Match(l.opts.FragmentPattern, ""); err != nil {
		return nil, fmt.Errorf("bad fragment pattern %q: %w", l.opts.FragmentPattern, err)
	}

	dirs, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}

	var paths []string
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(l.root, d.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(l.opts.FragmentPattern, e.Name()); ok {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	return paths, nil
}
