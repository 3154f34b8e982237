package planner

import "fmt"

var weekdays = []string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"}

// DayNames returns the canonical names for n consecutive plan days. Days past
// the first week carry a " (Woche N)" suffix.
func DayNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		name := weekdays[i%len(weekdays)]
		if week := i/len(weekdays) + 1; week > 1 {
			name = fmt.Sprintf("%s (Woche %d)", name, week)
		}
		names[i] = name
	}
	return names
}
