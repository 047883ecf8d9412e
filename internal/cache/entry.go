package cache

// Entry is a dirty-tracked handle on the cached fields of a single URL.
// Durable and transient implementations share this contract so that pages
// never need to know which one they hold.
type Entry interface {
	// Load populates the fields from storage. A missing record is not an
	// error: the URL is set to the requested URL and the content is absent.
	// Load is a no-op once the fields are populated.
	Load() error

	// Save persists the fields if any of them changed since they were
	// loaded or last saved. It writes nothing otherwise.
	Save() error

	// URL returns the url field.
	URL() string

	// SetURL sets the url field and marks the entry dirty.
	SetURL(url string)

	// Content returns the cached body and whether one is present.
	Content() (string, bool)

	// SetContent stores body as the content field and marks the entry dirty.
	SetContent(body string)

	// Dirty reports whether a field was set since the last load or save.
	Dirty() bool
}

// Record is the persisted form of an entry. Content is nil until the page
// body is known, and encodes as JSON null.
type Record struct {
	URL     string  `json:"url"`
	Content *string `json:"content"`
}

// Fields implements the field accessors and dirty tracking shared by every
// Entry. Storage-backed entries embed it and add Load and Save.
type Fields struct {
	record Record
	loaded bool
	dirty  bool
}

// URL returns the url field.
func (f *Fields) URL() string {
	return f.record.URL
}

// SetURL sets the url field and marks the fields dirty.
func (f *Fields) SetURL(url string) {
	f.record.URL = url
	f.dirty = true
}

// Content returns the content field and whether it is present.
func (f *Fields) Content() (string, bool) {
	if f.record.Content == nil {
		return "", false
	}
	return *f.record.Content, true
}

// SetContent sets the content field and marks the fields dirty.
func (f *Fields) SetContent(body string) {
	f.record.Content = &body
	f.dirty = true
}

// Dirty reports whether a field was set since the last load or save.
func (f *Fields) Dirty() bool {
	return f.dirty
}

// Loaded reports whether the fields were populated by a load.
func (f *Fields) Loaded() bool {
	return f.loaded
}

// Record returns a copy of the current record.
func (f *Fields) Record() Record {
	return f.record
}

// Populate replaces the fields with a record read from storage.
// The fields are clean afterwards.
func (f *Fields) Populate(rec Record) {
	f.record = rec
	f.loaded = true
	f.dirty = false
}

// Initialize sets up empty fields for url, used when storage has no record.
func (f *Fields) Initialize(url string) {
	f.record = Record{URL: url}
	f.loaded = true
	f.dirty = false
}

// MarkClean records that the fields were persisted.
func (f *Fields) MarkClean() {
	f.dirty = false
}

// TransientEntry is an Entry with no storage behind it. Load and Save do
// nothing, so the content lives only as long as the entry.
type TransientEntry struct {
	Fields
}

// NewTransientEntry returns an empty transient entry for url.
func NewTransientEntry(url string) *TransientEntry {
	e := &TransientEntry{}
	e.Initialize(url)
	return e
}

// Load does nothing.
func (e *TransientEntry) Load() error {
	return nil
}

// Save does nothing.
func (e *TransientEntry) Save() error {
	return nil
}

// Provider hands out entries keyed by URL.
type Provider interface {
	Entry(url string) (Entry, error)
}

var (
	_ Entry = (*TransientEntry)(nil)
	_ Entry = (*FileEntry)(nil)
)
