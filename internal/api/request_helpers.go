package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/upkeepai/upkeep-api/internal/api/shared"
)

// tzOffsetHeader carries the client's UTC offset in minutes, following the
// minutes-west-of-UTC convention browsers report. Missing or malformed
// values fall back to 0 (UTC).
const tzOffsetHeader = "X-TZ-Offset"

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, where the auth middleware placed it.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// getTzOffset reads the client UTC offset header.
func getTzOffset(r *http.Request) int {
	raw := r.Header.Get(tzOffsetHeader)
	if raw == "" {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return offset
}

// requireAuth extracts the user ID from the context and writes a 401 when
// it is missing. Returns false when the response has already been written.
func requireAuth(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}
