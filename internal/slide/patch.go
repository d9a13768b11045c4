package slide

// Patch replaces the mutable fields of a single record. Every transition
// sets all three fields so that a regenerated slide never keeps a stale
// image or error from an earlier pass.
type Patch struct {
	Status   Status `json:"status"`
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

func Generating() Patch {
	return Patch{Status: StatusGenerating}
}

func Completed(imageURL string) Patch {
	return Patch{Status: StatusCompleted, ImageURL: imageURL}
}

func Failed(msg string) Patch {
	return Patch{Status: StatusFailed, Error: msg}
}

// Apply returns r with the patch applied.
func (p Patch) Apply(r Record) Record {
	r.Status = p.Status
	r.ImageURL = p.ImageURL
	r.Error = p.Error
	return r
}

// ApplyPatch returns a new list equal to list except at position pos.
// pos is the position in the list, not the index claimed by the header.
// An out-of-range pos yields an unchanged copy.
func ApplyPatch(list []Record, pos int, p Patch) []Record {
	out := make([]Record, len(list))
	copy(out, list)
	if pos < 0 || pos >= len(out) {
		return out
	}
	out[pos] = p.Apply(out[pos])
	return out
}
