package domain

// FeatureVector holds the structural, lexical, temporal, and graph signals
// extracted from one note. Pure data; computed by the feature extractor and
// cached by note id + content hash.
type FeatureVector struct {
	NoteID      string
	ContentHash string

	WordCount      int
	HasTodos       bool
	HasDates       bool
	HasLinks       bool
	HasAttachments bool
	TodoCount      int
	LinkCount      int

	ObsidianTags []string // #tags from the body
	GenericTags  []string // tags from the header map
	Header       map[string]any

	Recency           Recency
	ContentPatterns   []ContentPattern
	DirectiveKeywords []string // intersection of the user directive with category keywords

	// InfoDensity = (link_count + todo_count) / max(word_count, 1).
	InfoDensity float64
}

// HasPattern reports whether the vector contains a given content pattern.
func (f *FeatureVector) HasPattern(p ContentPattern) bool {
	for _, c := range f.ContentPatterns {
		if c == p {
			return true
		}
	}
	return false
}

// HasTag reports whether the note carries the tag in either tag set.
func (f *FeatureVector) HasTag(tag string) bool {
	for _, t := range f.ObsidianTags {
		if t == tag {
			return true
		}
	}
	for _, t := range f.GenericTags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasDirectiveKeyword reports whether the user directive contained the keyword.
func (f *FeatureVector) HasDirectiveKeyword(kw string) bool {
	for _, k := range f.DirectiveKeywords {
		if k == kw {
			return true
		}
	}
	return false
}
