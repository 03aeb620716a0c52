// Package apperr defines the application error taxonomy. Every error that
// reaches a handler carries an HTTP status and a localized user message;
// raw store errors travel in the wrapped cause and never reach the client.
package apperr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// With returns a copy carrying a cause, leaving the sentinel untouched.
func (e *Error) With(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

var (
	ErrUnauthorized = New("UNAUTHORIZED", "認証が必要です", http.StatusUnauthorized)

	ErrGroupAccess     = New("GROUP_ACCESS_DENIED", "このグループにアクセスする権限がありません", http.StatusForbidden)
	ErrGroupNotFound   = New("GROUP_NOT_FOUND", "グループが見つかりません", http.StatusNotFound)
	ErrNotGroupOwner   = New("NOT_GROUP_OWNER", "グループのオーナーのみ操作できます", http.StatusForbidden)
	ErrInvalidInvite   = New("INVALID_INVITATION_CODE", "無効な招待コードです", http.StatusNotFound)
	ErrAlreadyMember   = New("ALREADY_MEMBER", "すでにこのグループのメンバーです", http.StatusConflict)
	ErrGroupFull       = New("GROUP_FULL", "このグループは満員です（最大20人）", http.StatusConflict)
	ErrOwnerImmovable  = New("OWNER_IMMOVABLE", "オーナーは削除できません", http.StatusBadRequest)
	ErrMemberNotFound  = New("MEMBER_NOT_FOUND", "メンバーが見つかりません", http.StatusNotFound)

	ErrPostNotFound = New("POST_NOT_FOUND", "投稿が見つかりません", http.StatusNotFound)
	ErrNotPostOwner = New("NOT_POST_OWNER", "権限がありません", http.StatusForbidden)

	ErrCommentNotFound = New("COMMENT_NOT_FOUND", "コメントが見つかりません", http.StatusNotFound)
	ErrNotCommentOwner = New("NOT_COMMENT_OWNER", "自分のコメントのみ削除できます", http.StatusForbidden)

	ErrNotificationNotFound = New("NOTIFICATION_NOT_FOUND", "通知が見つかりません", http.StatusNotFound)
	ErrNotificationOwner    = New("NOT_NOTIFICATION_OWNER", "権限がありません", http.StatusForbidden)
)

// Validation wraps a field-level problem as a 400.
func Validation(message string) *Error {
	return New("VALIDATION_FAILED", message, http.StatusBadRequest)
}

// Transient wraps a store or I/O failure. The user message is generic;
// the cause is kept for the server log.
func Transient(err error) *Error {
	return &Error{
		Code:    "TRANSIENT_STORE_ERROR",
		Message: "サーバーエラーが発生しました",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
