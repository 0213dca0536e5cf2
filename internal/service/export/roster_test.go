package export

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"workforce/backend/internal/entity"
)

func shift(id, staffID int, start, end string, hours float64) entity.Shift {
	s := entity.Shift{
		StaffID:       staffID,
		WorkDay:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:     start,
		EndTime:       end,
		DurationHours: hours,
	}
	s.ID = id
	return s
}

func TestRoster(t *testing.T) {
	shifts := []entity.Shift{
		shift(1, 1001, "22:00", "06:00", 8),
		shift(2, 1002, "09:00", "13:30", 4.5),
		shift(3, 1001, "14:00", "18:00", 4),
	}
	names := map[int]string{1001: "Aiko Tanaka"}

	var buf bytes.Buffer
	require.NoError(t, Roster(&buf, shifts, names))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, rosterHeaders, rows[0])
	assert.Equal(t, []string{"1", "1001", "Aiko Tanaka", "2026-03-02", "22:00", "06:00", "8"}, rows[1])
	assert.Equal(t, "", rows[2][2])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "1001", summary[1][0])
	total, err := strconv.ParseFloat(summary[1][2], 64)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, total, 1e-9)
	assert.Equal(t, "1002", summary[2][0])
}

func TestRoster_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Roster(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
