package rundata

import (
	"testing"
	"time"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(run, title, duration string) models.Record {
	return models.Record{
		models.FieldRunNumber: run,
		models.FieldTitle:     title,
		models.FieldDuration:  duration,
		"user_name":           "user-" + run,
	}
}

func TestGroupMergesSameTitle(t *testing.T) {
	grouped := Group([]models.Record{
		rec("1", "A", "00:10:00"),
		rec("2", "A", "00:05:00"),
	})

	require.Len(t, grouped, 1)
	assert.Equal(t, "A", grouped[0].Text(models.FieldTitle))
	assert.Equal(t, "00:15:00", grouped[0].Text(models.FieldDuration))
	assert.Equal(t, "1;2", grouped[0].RunNumber())
	assert.Equal(t, "user-1", grouped[0].Text("user_name"), "group keeps first member's other fields")
}

func TestGroupFirstSeenOrder(t *testing.T) {
	grouped := Group([]models.Record{
		rec("1", "B", "00:00:10"),
		rec("2", "A", "00:00:20"),
		rec("3", "B", "00:00:30"),
		rec("4", "C", "00:00:40"),
		rec("5", "A", "00:00:50"),
	})

	require.Len(t, grouped, 3)
	assert.Equal(t, "B", grouped[0].Text(models.FieldTitle))
	assert.Equal(t, "1;3", grouped[0].RunNumber())
	assert.Equal(t, "00:00:40", grouped[0].Text(models.FieldDuration))
	assert.Equal(t, "A", grouped[1].Text(models.FieldTitle))
	assert.Equal(t, "2;5", grouped[1].RunNumber())
	assert.Equal(t, "00:01:10", grouped[1].Text(models.FieldDuration))
	assert.Equal(t, "C", grouped[2].Text(models.FieldTitle))
	assert.Equal(t, "4", grouped[2].RunNumber())
}

func TestGroupIsIdempotent(t *testing.T) {
	once := Group([]models.Record{
		rec("1", "A", "00:10:00"),
		rec("2", "A", "00:05:00"),
		rec("3", "B", "00:01:00"),
	})
	twice := Group(once)
	assert.Equal(t, once, twice)
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	input := []models.Record{rec("1", "A", "00:10:00"), rec("2", "A", "00:05:00")}
	Group(input)
	assert.Equal(t, "00:10:00", input[0].Text(models.FieldDuration))
	assert.Equal(t, "1", input[0].RunNumber())
}

func TestGroupDurationDoesNotWrap(t *testing.T) {
	grouped := Group([]models.Record{
		rec("1", "long", "20:00:00"),
		rec("2", "long", "07:30:15"),
	})
	assert.Equal(t, "27:30:15", grouped[0].Text(models.FieldDuration))
}

func TestGroupInvalidDurationCountsAsZero(t *testing.T) {
	grouped := Group([]models.Record{
		rec("1", "A", "n/a"),
		rec("2", "A", "00:00:05"),
	})
	assert.Equal(t, "00:00:05", grouped[0].Text(models.FieldDuration))
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second, false},
		{"100:00:01", 100*time.Hour + time.Second, false},
		{"1:2:3", time.Hour + 2*time.Minute + 3*time.Second, false},
		{"00:60:00", 0, true},
		{"12:00", 0, true},
		{"aa:bb:cc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(0))
	assert.Equal(t, "01:01:01", FormatDuration(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "25:00:00", FormatDuration(25*time.Hour))
}
