package slide

import "fmt"

// Status is the lifecycle state of one slide within a generation pass.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is one slide recovered from a script: the header's claimed
// position, its title and body, and the generation state of its image.
type Record struct {
	Index      int    `json:"index" yaml:"index"`
	Total      int    `json:"total" yaml:"total"`
	Title      string `json:"title" yaml:"title"`
	RawContent string `json:"rawContent" yaml:"rawContent"`
	Status     Status `json:"status" yaml:"status"`
	ImageURL   string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Prompt is the text handed to image generation for this slide.
func (r Record) Prompt() string {
	return fmt.Sprintf("Title: %s\nContext: %s", r.Title, r.RawContent)
}

// Eligible reports whether a batch pass should (re)drive the record.
func Eligible(r Record) bool {
	return r.Status == StatusPending || r.Status == StatusFailed
}

// Progress is a read-only tally of record states.
type Progress struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Generating int `json:"generating"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Done reports whether no record is pending or generating.
func (p Progress) Done() bool {
	return p.Pending == 0 && p.Generating == 0
}

func Tally(list []Record) Progress {
	p := Progress{Total: len(list)}
	for _, r := range list {
		switch r.Status {
		case StatusPending:
			p.Pending++
		case StatusGenerating:
			p.Generating++
		case StatusCompleted:
			p.Completed++
		case StatusFailed:
			p.Failed++
		}
	}
	return p
}

// CountCompleted is the "N of total" figure shown while a batch runs.
func CountCompleted(list []Record) int {
	return Tally(list).Completed
}

// Clone returns a copy of list that shares no backing array with it.
func Clone(list []Record) []Record {
	if list == nil {
		return nil
	}
	out := make([]Record, len(list))
	copy(out, list)
	return out
}
