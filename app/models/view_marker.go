package models

import "time"

// Badge scopes backed by a view marker. Message badges are not marker-based:
// unread counts derive from per-message read receipts, so there is no
// "messages" scope here.
const (
	ViewScopeApplications = "applications"
	ViewScopeInvitations  = "invitations"
)

// ViewMarker records when a user last viewed a badge scope. Badge counts are
// derived by counting rows newer than the marker; the marker itself is the
// only state the tracker owns.
type ViewMarker struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserType     string    `gorm:"type:varchar(20);not null;index:ux_view_markers_scope,unique,priority:1" json:"user_type"`
	UserID       uint      `gorm:"not null;index:ux_view_markers_scope,unique,priority:2" json:"user_id"`
	Scope        string    `gorm:"type:varchar(30);not null;index:ux_view_markers_scope,unique,priority:3" json:"scope"`
	LastViewedAt time.Time `gorm:"not null" json:"last_viewed_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
