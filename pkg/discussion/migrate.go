package discussion

// Record is a discussion as found in storage. Records written before replies
// and sample protection existed lack repliesList and isSample.
type Record struct {
	ID            int64    `json:"id"`
	Topic         string   `json:"topic"`
	Category      string   `json:"category"`
	CategoryLabel string   `json:"categoryLabel"`
	Message       string   `json:"message"`
	Timestamp     int64    `json:"timestamp"`
	Replies       int      `json:"replies"`
	IsSample      *bool    `json:"isSample,omitempty"`
	RepliesList   *[]Reply `json:"repliesList,omitempty"`
}

// RecordOf converts a normalized discussion back to its stored shape.
func RecordOf(d Discussion) Record {
	sample := d.IsSample
	replies := d.RepliesList
	if replies == nil {
		replies = []Reply{}
	}
	return Record{
		ID:            d.ID,
		Topic:         d.Topic,
		Category:      d.Category,
		CategoryLabel: d.CategoryLabel,
		Message:       d.Message,
		Timestamp:     d.Timestamp,
		Replies:       d.Replies,
		IsSample:      &sample,
		RepliesList:   &replies,
	}
}

type migration struct {
	version int
	apply   func(r *Record) bool
}

// migrations run in version order on every load. Each step reports whether it
// changed the record and must be a no-op on its own output.
var migrations = []migration{
	{
		version: 1,
		apply: func(r *Record) bool {
			if r.RepliesList != nil {
				return false
			}
			empty := []Reply{}
			r.RepliesList = &empty
			return true
		},
	},
	{
		version: 2,
		apply: func(r *Record) bool {
			if r.IsSample != nil {
				return false
			}
			sample := false
			r.IsSample = &sample
			return true
		},
	},
	{
		version: 3,
		apply: func(r *Record) bool {
			n := len(*r.RepliesList)
			if r.Replies == n {
				return false
			}
			r.Replies = n
			return true
		},
	},
}

// Normalize applies all migrations and returns the full-shape discussions
// along with the versions that changed at least one record, ascending.
// An empty version list means the input was already normalized.
//
// The reply count is always recomputed from the reply list, so a legacy
// record with a count but no list ends up with zero replies. The browser
// board kept such counts; here the count always matches the list.
func Normalize(records []Record) ([]Discussion, []int) {
	hit := make([]bool, len(migrations))
	out := make([]Discussion, 0, len(records))
	for i := range records {
		r := records[i]
		for j, m := range migrations {
			if m.apply(&r) {
				hit[j] = true
			}
		}
		out = append(out, Discussion{
			ID:            r.ID,
			Topic:         r.Topic,
			Category:      r.Category,
			CategoryLabel: r.CategoryLabel,
			Message:       r.Message,
			Timestamp:     r.Timestamp,
			Replies:       r.Replies,
			IsSample:      *r.IsSample,
			RepliesList:   *r.RepliesList,
		})
	}

	var applied []int
	for j, m := range migrations {
		if hit[j] {
			applied = append(applied, m.version)
		}
	}
	return out, applied
}
