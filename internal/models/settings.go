package models

import "time"

// DefaultUsername is the fallback display name when none is set
const DefaultUsername = "User"

// ProfileSettings holds the user-editable profile fields
type ProfileSettings struct {
	Username        string  `json:"username"`
	ProfileImage    *string `json:"profile_image"`
	BackgroundImage *string `json:"background_image"`
}

// Normalize enforces the non-empty username invariant.
func (p *ProfileSettings) Normalize() {
	if p.Username == "" {
		p.Username = DefaultUsername
	}
}

// Equal reports whether two profiles carry the same field values.
func (p ProfileSettings) Equal(other ProfileSettings) bool {
	return p.Username == other.Username &&
		strPtrEqual(p.ProfileImage, other.ProfileImage) &&
		strPtrEqual(p.BackgroundImage, other.BackgroundImage)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DefaultProfile returns the profile used before any edits exist.
func DefaultProfile() ProfileSettings {
	return ProfileSettings{Username: DefaultUsername}
}

// WalletRecord is a saved wallet address bookmark, not the live session.
// At most one record in a user's collection is the default.
type WalletRecord struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	IsDefault bool   `json:"is_default"`
}

// UserSettings is the locally cached settings bundle
type UserSettings struct {
	Profile ProfileSettings `json:"profile"`
	Wallets []WalletRecord  `json:"wallets"`
}

// RemoteProfile mirrors the remote store's profile document
type RemoteProfile struct {
	UserID          string    `bson:"_id" json:"user_id"`
	DisplayName     string    `bson:"display_name" json:"display_name"`
	ProfileImage    *string   `bson:"profile_image" json:"profile_image"`
	BackgroundImage *string   `bson:"background_image" json:"background_image"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// RemoteWallet mirrors the remote store's wallet document, keyed by
// (user_id, wallet_address)
type RemoteWallet struct {
	ID            string `bson:"_id" json:"id"`
	UserID        string `bson:"user_id" json:"user_id"`
	WalletAddress string `bson:"wallet_address" json:"wallet_address"`
	IsDefault     bool   `bson:"is_default" json:"is_default"`
}

// SyncFailure records a single failed remote mutation during a sync run
type SyncFailure struct {
	Op      string `json:"op"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error"`
}

// SyncReport summarizes a sync run. Partial success is surfaced, never
// rolled back: already-applied mutations stay applied.
type SyncReport struct {
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Deleted  int           `json:"deleted"`
	Failures []SyncFailure `json:"failures,omitempty"`
}

// Failed reports whether any sub-operation failed.
func (r *SyncReport) Failed() bool {
	return len(r.Failures) > 0
}

// Mutations returns the total number of remote mutations attempted.
func (r *SyncReport) Mutations() int {
	return r.Inserted + r.Updated + r.Deleted + len(r.Failures)
}
