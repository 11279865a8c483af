package ranking

import (
	"strings"

	"github.com/spigell/peanuts-cli/internal/platform"
)

// Filter selects the jobs matching a free text query and a location and returns them as fresh
// unscored entries. The query is matched against title, location and description, the location
// only against the job location. Empty terms match everything.
func Filter(records []platform.JobRecord, query, location string) []*Job {
	query = strings.ToLower(strings.TrimSpace(query))
	location = strings.ToLower(strings.TrimSpace(location))

	jobs := make([]*Job, 0, len(records))
	for _, record := range records {
		if query != "" && !matchesAny(query, record.Title, record.Location, record.Description) {
			continue
		}
		if location != "" && !matchesAny(location, record.Location) {
			continue
		}
		jobs = append(jobs, NewJob(record))
	}

	return jobs
}

func matchesAny(term string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
