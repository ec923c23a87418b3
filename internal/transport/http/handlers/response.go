package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/storage"
	"github.com/vedran77/circle/pkg/validator"
)

type apiError struct {
	status int
	code   string
}

// serviceErrors maps service sentinels to responses. The message is the sentinel's text.
var serviceErrors = map[error]apiError{
	service.ErrEmailTaken:          {http.StatusConflict, "EMAIL_TAKEN"},
	service.ErrUsernameTaken:       {http.StatusConflict, "USERNAME_TAKEN"},
	service.ErrInvalidCreds:        {http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	service.ErrRegistrationExpired: {http.StatusBadRequest, "REGISTRATION_EXPIRED"},
	service.ErrInvalidCode:         {http.StatusBadRequest, "INVALID_CODE"},
	service.ErrTooManyAttempts:     {http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	service.ErrResendCooldown:      {http.StatusTooManyRequests, "RESEND_COOLDOWN"},
	service.ErrTooManyResends:      {http.StatusTooManyRequests, "TOO_MANY_RESENDS"},
	service.ErrInvalidResetToken:   {http.StatusBadRequest, "INVALID_TOKEN"},

	service.ErrUserNotFound:      {http.StatusNotFound, "NOT_FOUND"},
	service.ErrCannotFollowSelf:  {http.StatusBadRequest, "CANNOT_FOLLOW_SELF"},
	service.ErrProfileRestricted: {http.StatusForbidden, "PROFILE_PRIVATE"},

	service.ErrPostNotFound:    {http.StatusNotFound, "NOT_FOUND"},
	service.ErrCommentNotFound: {http.StatusNotFound, "NOT_FOUND"},
	service.ErrEmptyPost:       {http.StatusBadRequest, "EMPTY_POST"},
	service.ErrNotPostAuthor:   {http.StatusForbidden, "FORBIDDEN"},

	service.ErrConversationNotFound:    {http.StatusNotFound, "NOT_FOUND"},
	service.ErrNotConversationMember:   {http.StatusForbidden, "FORBIDDEN"},
	service.ErrCannotMessageSelf:       {http.StatusBadRequest, "CANNOT_MESSAGE_SELF"},
	service.ErrNotPendingTarget:        {http.StatusForbidden, "FORBIDDEN"},
	service.ErrRequestNotPending:       {http.StatusForbidden, "REQUEST_NOT_PENDING"},
	service.ErrInvalidResponse:         {http.StatusBadRequest, "INVALID_RESPONSE"},
	service.ErrNotGroup:                {http.StatusBadRequest, "NOT_GROUP"},
	service.ErrNotGroupAdmin:           {http.StatusForbidden, "FORBIDDEN"},
	service.ErrNotGroupOwner:           {http.StatusForbidden, "FORBIDDEN"},
	service.ErrOwnerMustTransfer:       {http.StatusForbidden, "OWNER_MUST_TRANSFER"},
	service.ErrTargetNotMember:         {http.StatusBadRequest, "TARGET_NOT_MEMBER"},
	service.ErrInvalidRole:             {http.StatusBadRequest, "INVALID_ROLE"},
	service.ErrInvalidInviteCode:       {http.StatusNotFound, "INVALID_INVITE_CODE"},
	service.ErrConversationNotAccepted: {http.StatusForbidden, "NOT_ACCEPTED"},

	service.ErrMessageNotFound:   {http.StatusNotFound, "NOT_FOUND"},
	service.ErrNotMessageOwner:   {http.StatusForbidden, "FORBIDDEN"},
	service.ErrEmptyMessage:      {http.StatusBadRequest, "EMPTY_MESSAGE"},
	service.ErrMessageDeleted:    {http.StatusBadRequest, "MESSAGE_DELETED"},
	service.ErrReplyTargetAbsent: {http.StatusBadRequest, "INVALID_REPLY_TARGET"},

	service.ErrNotificationNotFound: {http.StatusNotFound, "NOT_FOUND"},

	service.ErrInvalidUserRole:  {http.StatusBadRequest, "INVALID_ROLE"},
	service.ErrCannotDemoteSelf: {http.StatusBadRequest, "CANNOT_CHANGE_OWN_ROLE"},

	storage.ErrUnsupportedType: {http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
}

// writeServiceError answers with the mapped status for a known sentinel and logs anything else as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	for sentinel, apiErr := range serviceErrors {
		if errors.Is(err, sentinel) {
			writeError(w, apiErr.status, apiErr.code, sentence(sentinel.Error()))
			return
		}
	}
	log.Error(op, "err", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// decode reads the JSON body into dst and runs its validate tags. It writes the error response itself
// and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	if errs := validator.Struct(dst); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads ?page= and ?limit=; bad values fall back to the defaults.
func pageParams(r *http.Request) repository.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return service.NewPage(page, limit)
}
