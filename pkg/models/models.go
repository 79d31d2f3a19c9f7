package models

// Markers substituted for values the platform did not return.
const (
	Unknown       = "Unknown"
	NoDescription = "No description provided."
	NoEmail       = "N/A"
)

// Stats sources.
const (
	StatsPlatform = "platform"
	StatsComputed = "computed"
)

// Person identifies an author or commenter
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FileChange is one file touched by a change
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Status    string `json:"status"`
}

// Comment is a discussion note, optionally anchored to a file line
type Comment struct {
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	Path      string `json:"path,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// Record is the platform independent summary of one resource
type Record struct {
	Platform     string `json:"platform"`
	ResourceType string `json:"resource_type"`
	Kind         string `json:"kind"`
	ID           string `json:"id"`
	Project      string `json:"project"`

	Title       string   `json:"title"`
	State       string   `json:"state"`
	Description string   `json:"description"`
	WebURL      string   `json:"web_url"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Author      Person   `json:"author"`
	Assignees   []string `json:"assignees"`
	Labels      []string `json:"labels"`

	// Kind specific fields. The mapper of a kind that carries one always sets
	// it, using Unknown when the platform left it out; an empty value means
	// the field does not apply to the kind.
	SourceBranch  string `json:"source_branch,omitempty"`
	TargetBranch  string `json:"target_branch,omitempty"`
	Merged        bool   `json:"merged"`
	MergedAt      string `json:"merged_at,omitempty"`
	Topic         string `json:"topic,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	SHA           string `json:"sha,omitempty"`

	FilesChanged   []FileChange `json:"files_changed"`
	TotalFiles     int          `json:"total_files"`
	OmittedFiles   int          `json:"omitted_files"`
	TotalAdditions int          `json:"total_additions"`
	TotalDeletions int          `json:"total_deletions"`
	StatsSource    string       `json:"stats_source"`

	Comments        []Comment `json:"comments"`
	TotalComments   int       `json:"total_comments"`
	OmittedComments int       `json:"omitted_comments"`
}

// NewRecord returns a record with every optional field set to its marker
func NewRecord(platform, kind, resourceType, id, project string) *Record {
	return &Record{
		Platform:     platform,
		Kind:         kind,
		ResourceType: resourceType,
		ID:           id,
		Project:      project,
		Title:        Unknown,
		State:        Unknown,
		Description:  NoDescription,
		WebURL:       Unknown,
		CreatedAt:    Unknown,
		UpdatedAt:    Unknown,
		Author:       Person{Name: Unknown, Email: NoEmail},
		Assignees:    []string{},
		Labels:       []string{},
		FilesChanged: []FileChange{},
		StatsSource:  StatsComputed,
		Comments:     []Comment{},
	}
}
