package localdir

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/timmy/r2gate/internal/source"
)

// ManifestFileName is an optional JSONL manifest at the source root. When
// present only the files it lists are uploaded, under the keys it gives.
const ManifestFileName = "manifest.jsonl"

// ManifestItem is one line of manifest.jsonl.
type ManifestItem struct {
	Filename    string `json:"filename"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
}

// Adapter implements source.Source over a local directory tree.
type Adapter struct {
	basePath string
	items    []source.Item
	loaded   bool
}

// NewAdapter creates a new local directory adapter.
func NewAdapter(basePath string) *Adapter {
	return &Adapter{basePath: basePath}
}

// GetSourceID returns the source identifier.
func (a *Adapter) GetSourceID() string {
	return "localdir:" + a.basePath
}

// FetchBatch returns items in key order. The cursor is an index.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.Item, string, error) {
	if !a.loaded {
		if err := a.load(); err != nil {
			return nil, "", fmt.Errorf("failed to load items from %s: %w", a.basePath, err)
		}
		a.loaded = true
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if start >= len(a.items) {
		return []source.Item{}, "", nil
	}

	end := start + limit
	if limit <= 0 || end > len(a.items) {
		end = len(a.items)
	}

	next := ""
	if end < len(a.items) {
		next = strconv.Itoa(end)
	}
	return a.items[start:end], next, nil
}

// GetTotalCount returns the number of files the adapter will yield.
func (a *Adapter) GetTotalCount() (int, error) {
	if !a.loaded {
		if err := a.load(); err != nil {
			return 0, err
		}
		a.loaded = true
	}
	return len(a.items), nil
}

func (a *Adapter) load() error {
	manifestPath := filepath.Join(a.basePath, ManifestFileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return a.loadManifest(manifestPath)
	}
	return a.walk()
}

// walk collects every regular, non-hidden file under basePath.
func (a *Adapter) walk() error {
	a.items = []source.Item{}

	err := filepath.WalkDir(a.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != a.basePath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(a.basePath, p)
		if err != nil {
			return err
		}
		item, err := newItem(p, filepath.ToSlash(rel), "")
		if err != nil {
			return err
		}
		a.items = append(a.items, item)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(a.items, func(i, j int) bool { return a.items[i].Key < a.items[j].Key })
	return nil
}

func (a *Adapter) loadManifest(manifestPath string) error {
	file, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []source.Item{}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ManifestItem
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Filename == "" {
			// Skip malformed lines
			continue
		}

		localPath := filepath.Join(a.basePath, filepath.FromSlash(entry.Filename))
		key := entry.Key
		if key == "" {
			key = path.Clean(filepath.ToSlash(entry.Filename))
		}

		item, err := newItem(localPath, key, entry.ContentType)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		a.items = append(a.items, item)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}

	sort.Slice(a.items, func(i, j int) bool { return a.items[i].Key < a.items[j].Key })
	return nil
}

func newItem(localPath, key, contentType string) (source.Item, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return source.Item{}, err
	}
	if contentType == "" {
		if mt, err := mimetype.DetectFile(localPath); err == nil {
			contentType = mt.String()
		}
	}
	return source.Item{
		Key:         key,
		LocalPath:   localPath,
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}
