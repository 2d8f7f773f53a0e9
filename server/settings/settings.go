// Package settings persists the user facing configuration document.
//
// The document is a JSON object with three sections: auth, user and version.
// Section updates are merged key by key into the in-memory document which is
// then written back as a whole.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	ErrConfigNotFound = errors.New("no configuration file found")
	ErrConfigParse    = errors.New("unable to read configuration file")
	ErrSave           = errors.New("failed to save configuration")
	ErrInvalidUser    = errors.New("invalid user configuration")
)

const (
	SectionAuth    = "auth"
	SectionUser    = "user"
	SectionVersion = "version"
)

// ExpiryLayout is the layout of auth.expires_at inside the document.
const ExpiryLayout = "2006-01-02 15:04:05"

// DefaultTemplate is used when the user section carries no template.
const DefaultTemplate = "{clip_date} ¦ {game_name} ¦ {clip_title} ¦ {clip_creator}"

// AppVersion is stamped into the version section on every write.
var AppVersion = Version{Major: 1, Minor: 0}

type AuthConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	ExpiresAt    time.Time
}

type UserConfig struct {
	DefaultBroadcasterName string `json:"default_broadcaster"`
	DownloadFolder         string `json:"download_folder"`
	FilenameTemplate       string `json:"filename_template"`
}

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Store is the owner of the configuration document. All writes are
// serialized through mu.
type Store struct {
	path     string
	doc      map[string]map[string]any
	firstRun bool
	mu       sync.RWMutex
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		doc:  make(map[string]map[string]any),
	}
}

func (s *Store) Path() string { return s.path }

// Load reads the document from disk. A missing or unreadable file leaves an
// empty document in place and marks the store as first run.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = make(map[string]map[string]any)
	s.firstRun = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrConfigNotFound
		}
		return errors.Join(ErrConfigParse, err)
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Join(ErrConfigParse, err)
	}

	for section, body := range raw {
		values := make(map[string]any)
		if err := json.Unmarshal(body, &values); err != nil {
			return errors.Join(ErrConfigParse, fmt.Errorf("section %q: %w", section, err))
		}
		s.doc[section] = values
	}

	s.firstRun = false
	return nil
}

// FirstRun reports whether the last Load found no usable document.
func (s *Store) FirstRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstRun
}

// SaveSection merges data into the named section, stamps the current
// application version and writes the whole document.
func (s *Store) SaveSection(section string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.doc[section]
	if !ok {
		values = make(map[string]any)
		s.doc[section] = values
	}
	for k, v := range data {
		values[k] = v
	}

	s.doc[SectionVersion] = map[string]any{
		"major": AppVersion.Major,
		"minor": AppVersion.Minor,
	}

	body, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return errors.Join(ErrSave, err)
	}

	if err := os.WriteFile(s.path, body, 0600); err != nil {
		return errors.Join(ErrSave, err)
	}

	s.firstRun = false
	return nil
}

func (s *Store) Auth() AuthConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	section := s.doc[SectionAuth]
	auth := AuthConfig{
		ClientID:     stringOf(section, "client_id"),
		ClientSecret: stringOf(section, "client_secret"),
		AccessToken:  stringOf(section, "access_token"),
	}

	if exp := stringOf(section, "expires_at"); exp != "" {
		if t, err := time.ParseInLocation(ExpiryLayout, exp, time.Local); err == nil {
			auth.ExpiresAt = t
		}
	}

	return auth
}

// SaveAuth persists the auth section after a successful token exchange.
// A zero expiry is stored as an empty string and reads back as zero.
func (s *Store) SaveAuth(a AuthConfig) error {
	var expiresAt string
	if !a.ExpiresAt.IsZero() {
		expiresAt = a.ExpiresAt.Local().Format(ExpiryLayout)
	}

	return s.SaveSection(SectionAuth, map[string]any{
		"client_id":     a.ClientID,
		"client_secret": a.ClientSecret,
		"access_token":  a.AccessToken,
		"expires_at":    expiresAt,
	})
}

func (s *Store) User() UserConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	section := s.doc[SectionUser]
	user := UserConfig{
		DefaultBroadcasterName: stringOf(section, "default_user_name"),
		DownloadFolder:         stringOf(section, "dl_folder"),
		FilenameTemplate:       stringOf(section, "spacer"),
	}
	if user.FilenameTemplate == "" {
		user.FilenameTemplate = DefaultTemplate
	}

	return user
}

// SaveUser validates and persists the user section. validate checks the
// filename template and may be nil.
func (s *Store) SaveUser(u UserConfig, validate func(template string) error) error {
	u.DefaultBroadcasterName = strings.TrimSpace(u.DefaultBroadcasterName)
	u.DownloadFolder = strings.TrimSpace(u.DownloadFolder)
	u.FilenameTemplate = strings.TrimSpace(u.FilenameTemplate)

	switch {
	case u.DefaultBroadcasterName == "":
		return fmt.Errorf("%w: default broadcaster cannot be empty", ErrInvalidUser)
	case u.DownloadFolder == "":
		return fmt.Errorf("%w: download folder cannot be empty", ErrInvalidUser)
	case u.FilenameTemplate == "":
		return fmt.Errorf("%w: file name schema cannot be empty", ErrInvalidUser)
	}

	if validate != nil {
		if err := validate(u.FilenameTemplate); err != nil {
			return errors.Join(ErrInvalidUser, err)
		}
	}

	return s.SaveSection(SectionUser, map[string]any{
		"default_user_name": u.DefaultBroadcasterName,
		"dl_folder":         u.DownloadFolder,
		"spacer":            u.FilenameTemplate,
	})
}

func (s *Store) Version() Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	section := s.doc[SectionVersion]
	return Version{
		Major: intOf(section, "major"),
		Minor: intOf(section, "minor"),
	}
}

// VersionWarning returns a message when the document predates versioning.
func (s *Store) VersionWarning() string {
	if s.Version().Major == 0 {
		return "Warning: Old config file. Please update your File Name Schema!"
	}
	return ""
}

func stringOf(section map[string]any, key string) string {
	if section == nil {
		return ""
	}
	v, _ := section[key].(string)
	return v
}

// json numbers decode as float64
func intOf(section map[string]any, key string) int {
	if section == nil {
		return 0
	}
	switch v := section[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
