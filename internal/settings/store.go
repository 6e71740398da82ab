package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"hotkeyclicker/internal/core/autoclicker"
)

const (
	appDirName = "hotkeyclicker"
	fileName   = "config.json"
)

// fileRecord is the on-disk shape. Both keys are optional when loading.
type fileRecord struct {
	CPS    *rateValue `json:"cps"`
	Button *string    `json:"button"`
}

type savedRecord struct {
	CPS    float64 `json:"cps"`
	Button string  `json:"button"`
}

// rateValue accepts a JSON number or a string holding one.
type rateValue float64

func (r *rateValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("cps is not a number: %s", data)
	}
	*r = rateValue(value)
	return nil
}

// Store keeps the click settings and their JSON file in sync.
type Store struct {
	path   string
	logger autoclicker.Logger

	mu      sync.Mutex
	current autoclicker.Settings
}

// DefaultPath resolves the config file under the user config directory,
// falling back to the working directory.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", fileName)
	}
	return filepath.Join(configDir, appDirName, fileName)
}

func NewStore(path string, logger autoclicker.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Store{
		path:    path,
		logger:  logger,
		current: autoclicker.DefaultSettings(),
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Settings() autoclicker.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load replaces the current settings with the file's, and keeps them as they
// are when the file is missing or unusable. It never fails.
func (s *Store) Load() autoclicker.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.readLocked()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("No config file, using defaults", "path", s.path)
		} else {
			s.logger.Debug("Ignoring unusable config file", "path", s.path, "err", err)
		}
		return s.current
	}

	s.current = loaded
	s.logger.Info("Loaded config", "path", s.path, "cps", loaded.CPS, "button", loaded.Button)
	return s.current
}

func (s *Store) readLocked() (autoclicker.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return autoclicker.Settings{}, err
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return autoclicker.Settings{}, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	next := s.current
	if record.CPS != nil {
		cps := float64(*record.CPS)
		if !validRate(cps) {
			return autoclicker.Settings{}, fmt.Errorf("%w: %v", ErrInvalidRate, cps)
		}
		next.CPS = cps
	}
	if record.Button != nil {
		button, err := autoclicker.ParseButton(*record.Button)
		if err != nil {
			return autoclicker.Settings{}, fmt.Errorf("%w: %v", ErrInvalidButton, err)
		}
		next.Button = button
	}
	return next, nil
}

// Save updates the in-memory settings and writes both fields to the file.
// Callers validate values first.
func (s *Store) Save(next autoclicker.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = next

	data, err := json.MarshalIndent(savedRecord{CPS: next.CPS, Button: next.Button.String()}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Info("Saved config", "path", s.path, "cps", next.CPS, "button", next.Button)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+fileName+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}

// validRate also rejects rates whose interval does not fit in a Duration.
func validRate(cps float64) bool {
	if !(cps > 0) || math.IsInf(cps, 0) {
		return false
	}
	return float64(time.Second)/cps < math.MaxInt64
}
