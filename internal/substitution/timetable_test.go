package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func TestNormalizeDayName(t *testing.T) {
	cases := map[string]string{
		"monday":  "MONDAY",
		" Mon ":   "MONDAY",
		"senin":   "MONDAY",
		"1":       "MONDAY",
		"Jumat":   "FRIDAY",
		"7":       "SUNDAY",
		"someday": "",
		"":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDayName(in), in)
	}
	assert.Equal(t, "MONDAY", WeekdayOf(monday))
}

func TestTimetableIndexLookups(t *testing.T) {
	idx := NewTimetableIndex([]models.Lesson{
		{TeacherID: "t1", ClassID: "10A", Subject: "Math", DayOfWeek: "senin", Period: 4},
		{TeacherID: "t1", ClassID: "10B", Subject: "Math", DayOfWeek: "Monday", Period: 2, Kind: models.LessonStay},
		{TeacherID: "t1", ClassID: "10B", Subject: "Physics", DayOfWeek: "TUESDAY", Period: 1},
		{TeacherID: "t2", ClassID: "10C", Subject: "Art", DayOfWeek: "bogus", Period: 1},
	})

	lessons := idx.LessonsFor("t1", "mon")
	require.Len(t, lessons, 2)
	assert.Equal(t, 2, lessons[0].Period)
	assert.Equal(t, models.LessonOrdinary, lessons[1].Kind)

	l, ok := idx.LessonAt("t1", "MONDAY", 2)
	require.True(t, ok)
	assert.Equal(t, models.LessonStay, l.Kind)
	_, ok = idx.LessonAt("t1", "MONDAY", 3)
	assert.False(t, ok)

	span, ok := idx.DailySpan("t1", "MONDAY")
	require.True(t, ok)
	assert.Equal(t, Span{First: 2, Last: 4}, span)
	assert.True(t, span.Contains(3))
	assert.False(t, span.Contains(5))
	assert.Equal(t, "2-4", span.String())

	assert.True(t, idx.TeachesSubject("t1", "physics"))
	assert.False(t, idx.TeachesSubject("t1", "Art"))
	assert.False(t, idx.TeachesSubject("t1", ""))
	assert.False(t, idx.HasLessons("t2", "MONDAY"))
}
