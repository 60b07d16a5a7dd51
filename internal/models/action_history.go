package models

import "time"

// UnknownActor is stored as actor id when the caller could not be identified
const UnknownActor = "unknown"

// ActionKind identifies what an audit entry records
type ActionKind string

const (
	ActionTokenInvalid             ActionKind = "TOKEN_INVALID"
	ActionUnauthorizedAttempt      ActionKind = "UNAUTHORIZED_ATTEMPT"
	ActionLoginFailedUnknownEmail  ActionKind = "LOGIN_FAILED_UNKNOWN_EMAIL"
	ActionLoginFailedNotAdmin      ActionKind = "LOGIN_FAILED_NOT_ADMIN"
	ActionLoginFailedWrongPassword ActionKind = "LOGIN_FAILED_WRONG_PASSWORD"
	ActionLoginFailedInactive      ActionKind = "LOGIN_FAILED_INACTIVE"
	ActionConnexion                ActionKind = "CONNEXION"
	ActionDeconnexion              ActionKind = "DECONNEXION"
	ActionCreation                 ActionKind = "CREATION"
	ActionConsultation             ActionKind = "CONSULTATION"
	ActionModification             ActionKind = "MODIFICATION"
	ActionSuppression              ActionKind = "SUPPRESSION"
)

// TargetType is the kind of object an audit entry is about
type TargetType string

const (
	TargetSystem       TargetType = "SYSTEM"
	TargetUser         TargetType = "USER"
	TargetAdmin        TargetType = "ADMIN"
	TargetUserList     TargetType = "USER_LIST"
	TargetHistory      TargetType = "HISTORY"
	TargetAdminHistory TargetType = "ADMIN_HISTORY"
	TargetAvatar       TargetType = "AVATAR"
)

// ActionHistory is an immutable audit record of an action performed against the service
type ActionHistory struct {
	ID         int64      `json:"id"`
	ActorID    string     `json:"actorId"`
	ActorLabel string     `json:"actorLabel"`
	Action     ActionKind `json:"action"`
	TargetType TargetType `json:"targetType"`
	TargetID   string     `json:"targetId,omitempty"`
	Details    string     `json:"details,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ActorSummary is the current identity of an actor, joined at read time
type ActorSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActionHistoryItem is an audit record as returned by history queries.
// Actor is nil when the actor was unknown or has since been deleted.
type ActionHistoryItem struct {
	ActionHistory
	Actor *ActorSummary `json:"actor"`
}

// ActionHistoryFilter narrows a history query. Zero values disable a criterion.
type ActionHistoryFilter struct {
	ActorID string
	Action  ActionKind
	From    *time.Time
	To      *time.Time
}

// Pagination describes the page returned by a history query
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// ActionHistoryPage is the response of a history query
type ActionHistoryPage struct {
	History    []ActionHistoryItem `json:"history"`
	Pagination Pagination          `json:"pagination"`
}
