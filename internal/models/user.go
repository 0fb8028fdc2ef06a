package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// DefaultSyncInterval is the extension sync period, in minutes, given to new users.
const DefaultSyncInterval = 5

// User is an account that owns telemetry events.
type User struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	Name          string       `json:"name"`
	PasswordHash  string       `json:"-"`
	OAuthProvider *string      `json:"oauthProvider"`
	OAuthID       *string      `json:"-"`
	Settings      UserSettings `json:"settings"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// UserSettings holds per-user preferences stored as JSONB.
type UserSettings struct {
	SyncInterval   int               `json:"sync_interval"`
	Categorization map[string]string `json:"categorization"`
}

// DefaultUserSettings returns the settings assigned at registration.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		SyncInterval:   DefaultSyncInterval,
		Categorization: map[string]string{},
	}
}

func (s UserSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *UserSettings) Scan(value interface{}) error {
	if value == nil {
		*s = DefaultUserSettings()
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	if err := json.Unmarshal(bytes, s); err != nil {
		return err
	}
	if s.Categorization == nil {
		s.Categorization = map[string]string{}
	}
	return nil
}

// ProfileUpdate carries the mutable user fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name     *string
	Settings *UserSettings
}
