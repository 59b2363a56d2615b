package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the file extension of prompt files.
const promptExt = ".txt"

// PromptStore loads LLM prompts from user-editable files on disk, with
// fallback to built-in defaults.
//
// Files are created lazily on the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	defaults  map[string]string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.shelfsearch/prompts/.
// defaults seeds new prompt files and serves as fallback.
func NewPromptStore(promptDir string, defaults map[string]string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	copied := make(map[string]string, len(defaults))
	for k, v := range defaults {
		copied[k] = v
	}

	return &PromptStore{
		promptDir: promptDir,
		defaults:  copied,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := s.defaults[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if fallback, ok := s.defaults[name]; ok {
			return fallback, nil
		}
		if err == nil {
			err = fmt.Errorf("file is empty")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the cache whenever a prompt file changes, until ctx is
// done. onChange, when set, is called with the prompt name after each
// reload.
func (s *PromptStore) Watch(ctx context.Context, onChange func(name string)) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.promptDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, promptExt) || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.Reload()
			name := strings.TrimSuffix(filepath.Base(event.Name), promptExt)
			logger.Debug("prompt %s changed, cache cleared", name)
			if onChange != nil {
				onChange(name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher: %v", err)
		}
	}
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range s.defaults {
		path := filepath.Join(s.promptDir, name+promptExt)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme documents the prompt files for people editing them.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# shelfsearch prompts\n\n")
	b.WriteString("Templates used for keyword extraction, query refinement and answer composition.\n\n")
	b.WriteString("## Files\n\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s%s`\n", name, promptExt)
	}
	b.WriteString(`
## Customisation

Edit any file; a running server picks up changes immediately. Delete a file
to restore its default on the next start.

Templates use Go fmt placeholders (` + "`%s`" + `). Keep the number and order of
placeholders unchanged:

- keyword_extraction: question, hint
- query_refinement: question, books found so far, hint
- answer_composition: question, library context, style hint
`)
	return os.WriteFile(path, []byte(b.String()), 0600)
}
