// ABOUTME: Remembered sync account for the CLI, stored in the XDG config dir.
// ABOUTME: Holds the email and last sync time only; the password is never written.
package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Profile is the on-disk record of the last signed-in account.
type Profile struct {
	Email      string    `json:"email"`
	AccountID  string    `json:"account_id,omitempty"`
	LastSynced time.Time `json:"last_synced,omitempty"`
	LastOp     string    `json:"last_op,omitempty"`
}

// ProfileDir returns the XDG config directory for habits.
func ProfileDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "habits")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "habits")
}

// ProfilePath returns the path to the sync profile file.
func ProfilePath() string {
	return filepath.Join(ProfileDir(), "sync.json")
}

// LoadProfile reads the profile. A missing file yields an empty profile.
func LoadProfile() (*Profile, error) {
	data, err := os.ReadFile(ProfilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Profile{}, nil
		}
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProfile writes the profile with owner-only permissions.
func SaveProfile(p *Profile) error {
	if err := os.MkdirAll(ProfileDir(), 0750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ProfilePath(), data, 0600)
}

// Record updates the profile from a coordinator status.
func (p *Profile) Record(st Status) {
	if st.Email != "" {
		p.Email = st.Email
	}
	if st.AccountID != "" {
		p.AccountID = st.AccountID
	}
	if !st.LastSynced.IsZero() {
		p.LastSynced = st.LastSynced
	}
	p.LastOp = st.LastOp
}

// ClearProfile removes the profile file.
func ClearProfile() error {
	path := ProfilePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}
