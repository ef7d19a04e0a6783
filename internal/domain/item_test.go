package domain_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upkeepai/upkeep-api/internal/domain"
)

func TestNewItem(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	item, err := domain.NewItem(userID, "Water Heater", "Rheem XE50")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, userID, item.UserID)
	assert.Equal(t, "Water Heater", item.Name)
	assert.Equal(t, "Rheem XE50", item.Model)
	assert.Equal(t, domain.GenStatusPending, item.GenStatus, "items created through this path always start pending")
	require.NotNil(t, item.GenUpdatedAt)
	assert.Nil(t, item.GenError)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestNewItemValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userID   uuid.UUID
		itemName string
		wantErr  error
	}{
		{
			name:     "empty user ID",
			userID:   uuid.Nil,
			itemName: "Furnace",
			wantErr:  domain.ErrEmptyItemUserID,
		},
		{
			name:     "empty name",
			userID:   uuid.New(),
			itemName: "",
			wantErr:  domain.ErrEmptyItemName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewItem(tt.userID, tt.itemName, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestItemValidateGenStatus(t *testing.T) {
	t.Parallel()

	item, err := domain.NewItem(uuid.New(), "Dishwasher", "")
	require.NoError(t, err)

	for _, status := range []domain.GenStatus{
		domain.GenStatusNone,
		domain.GenStatusPending,
		domain.GenStatusReady,
		domain.GenStatusFailed,
	} {
		item.GenStatus = status
		assert.NoError(t, item.Validate(), "status %q should be valid", status)
	}

	item.GenStatus = domain.GenStatus("processing")
	assert.ErrorIs(t, item.Validate(), domain.ErrInvalidGenStatus)
}

func TestItemValidateGenErrorLength(t *testing.T) {
	t.Parallel()

	item, err := domain.NewItem(uuid.New(), "Roof", "")
	require.NoError(t, err)

	msg := strings.Repeat("x", domain.MaxGenErrorLength)
	item.GenError = &msg
	assert.NoError(t, item.Validate())

	tooLong := msg + "y"
	item.GenError = &tooLong
	assert.ErrorIs(t, item.Validate(), domain.ErrGenErrorTooLong)
}

func TestTruncateGenError(t *testing.T) {
	t.Parallel()

	short := "provider exploded"
	assert.Equal(t, short, domain.TruncateGenError(short))

	long := strings.Repeat("e", domain.MaxGenErrorLength+100)
	truncated := domain.TruncateGenError(long)
	assert.Len(t, truncated, domain.MaxGenErrorLength)
}

func TestTruncateGenErrorKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// A multi-byte rune straddling the byte limit must be dropped whole,
	// not split into invalid bytes the database would reject.
	msg := strings.Repeat("x", domain.MaxGenErrorLength-1) + "é plus trailing detail"
	truncated := domain.TruncateGenError(msg)

	assert.True(t, utf8.ValidString(truncated))
	assert.LessOrEqual(t, len(truncated), domain.MaxGenErrorLength)
	assert.Equal(t, strings.Repeat("x", domain.MaxGenErrorLength-1), truncated)
}
