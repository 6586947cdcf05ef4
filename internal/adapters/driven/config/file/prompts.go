package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves answer prompts from <dir>/<name>.txt, seeding the
// directory with the built-in defaults on first use. A missing, unreadable
// or blank file falls back to the built-in text.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

//nolint:lll // prompt text
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a compliance analyst answering questions about a system's security posture.

Answer strictly from the provided context. The context is grouped into DOC sources (the System Security Plan), JSON sources (vulnerability scan findings) and DB sources (evidence requests from the audit database).

Rules:
1. Use only facts that appear in the context. Do not rely on prior knowledge.
2. Cite every fact with its source type and ID in brackets, for example [DOC SSP.docx] or [JSON CVE-2024-1234].
3. When sources disagree, say so and cite both.
4. If the context does not contain enough information to answer, say that the available evidence is insufficient and name what is missing.
5. Be concise.`,
}

const promptsReadme = "# evidence-rag prompts\n\n" +
	"`answer_system.txt` is the system instruction used when composing grounded, cited answers.\n\n" +
	"Edits apply to the next command, or after restarting `serve` or the TUI.\n" +
	"Delete a file to restore its default on the next run.\n"

// DefaultPrompt returns the built-in text for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a prompt store rooted at dir, or at
// ~/.evidence-rag/prompts when dir is empty. No I/O happens until Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the prompt called name.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	fallback, known := defaultPrompts[name]
	text, err := s.read(name)
	switch {
	case err == nil && text != "":
	case known:
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("prompt %s: %v, using built-in default", name, err)
		}
		text = fallback
	case s.seedErr != nil:
		return "", fmt.Errorf("prompt %q: %w", name, s.seedErr)
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	default:
		return "", fmt.Errorf("load prompt %q: file is empty", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = text
	return text, nil
}

// Reload drops cached prompts so the next Load rereads the files.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) read(name string) (string, error) {
	if s.seedErr != nil {
		return "", s.seedErr
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// seed creates the directory and writes any default or README file that
// does not exist yet. Existing files are never touched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Debug("prompts: %v", s.seedErr)
		return
	}

	files := map[string]string{filepath.Join(s.dir, "README.md"): promptsReadme}
	for name, text := range defaultPrompts {
		files[s.path(name)] = text
	}
	for path, content := range files {
		if err := writeIfMissing(path, content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", filepath.Base(path), err)
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
