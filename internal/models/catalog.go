// Package models defines the catalog types written to and read from the snapshot.
package models

// Project status values.
const (
	StatusLocked   = "LOCKED"
	StatusUnlocked = "UNLOCKED"
)

// About sections, in display order.
const (
	SectionExperience  = "EXPERIENCE"
	SectionEducation   = "EDUCATION"
	SectionCertificate = "CERTIFICATE"
	SectionResearch    = "RESEARCH"
)

// Settings keys with a meaning to folio.
const (
	SettingPassword      = "PASSWORD"
	SettingProjectsCount = "TOTAL_PROJECTS_COUNT"
)

// TimestampLayout formats lastUpdated: ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is the artifact produced by one extraction run.
type Snapshot struct {
	Projects    []Project    `json:"projects"`
	About       []AboutEntry `json:"about"`
	Vault       []VaultItem  `json:"vault"`
	Settings    Settings     `json:"settings"`
	LastUpdated string       `json:"lastUpdated"`
}

// Project is one portfolio entry.
type Project struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	ProjectType    string   `json:"projectType"`
	Part           string   `json:"part"`
	Client         string   `json:"client"`
	Tags           []string `json:"tags"`
	Status         string   `json:"status"`
	ThumbColor     string   `json:"thumbColor"`
	MainColor      string   `json:"mainColor"`
	ModalTextColor string   `json:"modalTextColor"`
	ModalBgColor   string   `json:"modalBgColor"`
	ModalBgColorPC string   `json:"modalBgColorPC"`
	ThumbnailImage *string  `json:"thumbnailImage"`
	CoverImage     *string  `json:"coverImage"`
	Images         []string `json:"images"`
	Order          float64  `json:"order"`
	Number         string   `json:"number"`
	Year           int      `json:"year"`
	Category       string   `json:"category"`
	TechType       string   `json:"techType"`
}

// Locked reports whether the project sits behind the gate.
func (p Project) Locked() bool { return p.Status == StatusLocked }

// AboutEntry is one biography line.
type AboutEntry struct {
	ID        string  `json:"id"`
	Section   string  `json:"section"`
	Title     string  `json:"title"`
	Detail    string  `json:"detail"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Link      *string `json:"link"`
}

// VaultItem is one image of the locked gallery.
type VaultItem struct {
	ID             string  `json:"id"`
	Order          float64 `json:"order"`
	ThumbnailImage string  `json:"thumbnailImage"`
	FullImage      string  `json:"fullImage"`
}

// Settings is the open key/value collection.
type Settings map[string]string
