package site

import (
	"strconv"

	"github.com/starford/folio/internal/models"
)

// ProjectRow is one line of the project list.
type ProjectRow struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Title      string `json:"title"`
	TechType   string `json:"techType"`
	Year       int    `json:"year"`
	Category   string `json:"category"`
	ThumbColor string `json:"thumbColor"`
	Locked     bool   `json:"locked"`
}

// ProjectDetail is what the project modal shows.
type ProjectDetail struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Description    string   `json:"description"`
	Type           string   `json:"type"`
	Date           string   `json:"date"`
	Part           string   `json:"part"`
	Client         string   `json:"client"`
	Tags           []string `json:"tags"`
	Color          string   `json:"color"`
	ModalTextColor string   `json:"modalTextColor"`
	ModalBgColor   string   `json:"modalBgColor"`
	ModalBgColorPC string   `json:"modalBgColorPC"`
	CoverImage     *string  `json:"coverImage"`
	Images         []string `json:"images"`
}

// AboutRow is one rendered biography line.
type AboutRow struct {
	DateLabel string  `json:"dateLabel"`
	Title     string  `json:"title"`
	Detail    string  `json:"detail"`
	Link      *string `json:"link,omitempty"`
}

// AboutSection groups rows under a heading.
type AboutSection struct {
	Section string     `json:"section"`
	Heading string     `json:"heading"`
	Rows    []AboutRow `json:"rows"`
}

// AboutPage is the rendered about page.
type AboutPage struct {
	Sections      []AboutSection `json:"sections"`
	ProjectsCount string         `json:"projectsCount"`
}

// VaultTile is one gallery cell.
type VaultTile struct {
	ID             string `json:"id"`
	ThumbnailImage string `json:"thumbnailImage"`
	FullImage      string `json:"fullImage"`
}

var sectionOrder = []struct {
	section, heading string
	spanDates        bool
}{
	{models.SectionExperience, "EXPERIENCE", true},
	{models.SectionEducation, "EDUCATION", true},
	{models.SectionCertificate, "CERTIFICATE", false},
	{models.SectionResearch, "RESEARCH PAPERS", false},
}

func projectRow(p models.Project) ProjectRow {
	return ProjectRow{
		ID:         p.ID,
		Number:     p.Number,
		Title:      p.Title,
		TechType:   p.TechType,
		Year:       p.Year,
		Category:   p.Category,
		ThumbColor: p.ThumbColor,
		Locked:     p.Locked(),
	}
}

func projectDetail(p models.Project) ProjectDetail {
	return ProjectDetail{
		ID:             p.ID,
		Title:          p.Title,
		Subtitle:       p.Subtitle,
		Description:    p.Description,
		Type:           p.ProjectType,
		Date:           p.Date,
		Part:           p.Part,
		Client:         p.Client,
		Tags:           p.Tags,
		Color:          p.MainColor,
		ModalTextColor: p.ModalTextColor,
		ModalBgColor:   p.ModalBgColor,
		ModalBgColorPC: p.ModalBgColorPC,
		CoverImage:     p.CoverImage,
		Images:         p.Images,
	}
}

// GroupAbout renders entries into the fixed section order. Empty sections and
// entries of unknown sections are left out.
func GroupAbout(entries []models.AboutEntry) []AboutSection {
	out := make([]AboutSection, 0, len(sectionOrder))
	for _, s := range sectionOrder {
		var rows []AboutRow
		for _, e := range entries {
			if e.Section != s.section {
				continue
			}
			rows = append(rows, AboutRow{
				DateLabel: dateLabel(e, s.spanDates),
				Title:     e.Title,
				Detail:    e.Detail,
				Link:      e.Link,
			})
		}
		if len(rows) > 0 {
			out = append(out, AboutSection{Section: s.section, Heading: s.heading, Rows: rows})
		}
	}
	return out
}

func dateLabel(e models.AboutEntry, span bool) string {
	if !span {
		return e.StartDate
	}
	if e.EndDate == nil || *e.EndDate == "" {
		return e.StartDate + " -"
	}
	return e.StartDate + " - " + *e.EndDate
}

func projectsCount(settings models.Settings, fallback int) string {
	if v := settings[models.SettingProjectsCount]; v != "" {
		return v
	}
	return strconv.Itoa(fallback)
}
