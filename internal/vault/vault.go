// Package vault reads chronicle content (locations, characters, and
// session notes) from a directory tree of markdown files.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chronicler/internal/config"
)

const (
	mdExt = ".md"

	// reservedPrefix marks files excluded from character listings.
	reservedPrefix = "__"

	// storyFile is the reserved session file holding the running
	// narrative summary.
	storyFile = "__result.md"
)

// ErrNotFound is the sentinel for absent vault entities.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an absent entity along with what was asked for.
type NotFoundError struct {
	Kind string // "location", "character", "story"
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Character identifies a character file by name and the folder-derived
// organization it belongs to. Organization is empty for files at the
// root of the characters directory; nested folders join with "/".
type Character struct {
	Name         string
	Organization string
}

// Vault provides read-only access to a validated chronicle layout.
type Vault struct {
	cfg config.Config
}

// New wraps a configuration. The caller is expected to have run
// cfg.Validate first; the vault itself treats absent directories as
// empty rather than failing.
func New(cfg config.Config) *Vault {
	return &Vault{cfg: cfg}
}

// ListLocations returns all location names, sorted lexicographically.
// The name is the markdown filename without its extension.
func (v *Vault) ListLocations() ([]string, error) {
	entries, err := os.ReadDir(v.cfg.LocationsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != mdExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), mdExt))
	}
	sort.Strings(names)
	return names, nil
}

// ReadLocation returns the markdown body of one location.
func (v *Vault) ReadLocation(name string) (string, error) {
	if !validName(name) {
		return "", &NotFoundError{Kind: "location", Name: name}
	}
	data, err := os.ReadFile(filepath.Join(v.cfg.LocationsDir, name+mdExt))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Kind: "location", Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("read location %q: %w", name, err)
	}
	return string(data), nil
}

// ListCharacters walks the characters directory and returns every
// non-reserved character, sorted by (organization, name).
func (v *Vault) ListCharacters() ([]Character, error) {
	root := v.cfg.CharactersDir
	var chars []Character

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != mdExt {
			return nil
		}
		if strings.HasPrefix(d.Name(), reservedPrefix) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		org := filepath.Dir(rel)
		if org == "." {
			org = ""
		}
		chars = append(chars, Character{
			Name:         strings.TrimSuffix(d.Name(), mdExt),
			Organization: filepath.ToSlash(org),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}

	sort.Slice(chars, func(i, j int) bool {
		if chars[i].Organization != chars[j].Organization {
			return chars[i].Organization < chars[j].Organization
		}
		return chars[i].Name < chars[j].Name
	})
	return chars, nil
}

// ListOrganizations returns the distinct organizations in listing order.
func (v *Vault) ListOrganizations() ([]string, error) {
	chars, err := v.ListCharacters()
	if err != nil {
		return nil, err
	}
	var orgs []string
	seen := map[string]bool{}
	for _, c := range chars {
		if !seen[c.Organization] {
			seen[c.Organization] = true
			orgs = append(orgs, c.Organization)
		}
	}
	return orgs, nil
}

// ReadCharacter returns the markdown body of one character. org is the
// slash-joined organization path; empty means the root of the
// characters directory. Reserved names are treated as absent.
func (v *Vault) ReadCharacter(name, org string) (string, error) {
	if !validName(name) || strings.HasPrefix(name, reservedPrefix) || !validOrg(org) {
		return "", &NotFoundError{Kind: "character", Name: name}
	}
	path := filepath.Join(v.cfg.CharactersDir, filepath.FromSlash(org), name+mdExt)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Kind: "character", Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("read character %q: %w", name, err)
	}
	return string(data), nil
}

// ReadStorySoFar returns the reserved session summary file.
func (v *Vault) ReadStorySoFar() (string, error) {
	data, err := os.ReadFile(filepath.Join(v.cfg.SessionsDir, storyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Kind: "story", Name: storyFile}
	}
	if err != nil {
		return "", fmt.Errorf("read story: %w", err)
	}
	return string(data), nil
}

// validName rejects names that would escape the vault directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}

// validOrg rejects organization paths with traversal segments.
func validOrg(org string) bool {
	if org == "" {
		return true
	}
	for _, seg := range strings.Split(org, "/") {
		if !validName(seg) {
			return false
		}
	}
	return true
}
