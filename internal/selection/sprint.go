package selection

import (
	"regexp"
	"strconv"
	"time"

	"voicetask/internal/domain"
)

// Sprint names carry their week span, e.g. "Q3-27:30".
var weekRangePattern = regexp.MustCompile(`Q\d-(\d+):(\d+)`)

// weekRange extracts the inclusive week span from a sprint name.
func weekRange(name string) (start int, end int, ok bool) {
	match := weekRangePattern.FindStringSubmatch(name)
	if match == nil {
		return 0, 0, false
	}
	start, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.Atoi(match[2])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// SprintForWeek returns the first sprint whose week span contains week.
func SprintForWeek(sprints []domain.Sprint, week int) (domain.Sprint, bool) {
	for _, sprint := range sprints {
		start, end, ok := weekRange(sprint.Name)
		if !ok {
			continue
		}
		if week >= start && week <= end {
			return sprint, true
		}
	}
	return domain.Sprint{}, false
}

// CurrentWeek is the ISO 8601 week number of now.
func CurrentWeek(now time.Time) int {
	_, week := now.ISOWeek()
	return week
}
