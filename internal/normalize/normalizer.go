package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/folio/internal/models"
)

// Default colors applied when a project leaves them blank.
const (
	DefaultThumbColor     = "#000000"
	DefaultMainColor      = "#000000"
	DefaultModalTextColor = "#000000"
	DefaultModalBgColor   = "#FFFFFF"
	DefaultModalBgColorPC = "#FFFFFF"
)

// Normalizer maps records onto catalog types.
type Normalizer struct {
	now    func() time.Time
	images ImageResolver
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the clock used for the default project year.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithAssets enables local asset enumeration for empty project image lists.
func WithAssets(lister AssetLister) Option {
	return func(n *Normalizer) {
		n.images.Lister = lister
	}
}

// WithFolders replaces the project number to folder map.
func WithFolders(folders FolderMap) Option {
	return func(n *Normalizer) {
		if folders != nil {
			n.images.Folders = folders
		}
	}
}

// New creates a Normalizer using DefaultFolders and the wall clock.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:    time.Now,
		images: ImageResolver{Folders: DefaultFolders},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Project maps a raw record to a Project.
func (n *Normalizer) Project(rec Record) models.Project {
	return n.NormalizeProject(models.Project{
		ID:             rec.String("Project ID", "id"),
		Title:          rec.String("Title", "title"),
		Subtitle:       rec.String("Subtitle", "subtitle"),
		Description:    rec.String("Description", "description"),
		Date:           rec.String("Date", "date"),
		ProjectType:    rec.String("ProjectType", "projectType"),
		Part:           rec.String("Part", "part"),
		Client:         rec.String("Client", "client"),
		Tags:           rec.Strings("tags", "Tags"),
		Status:         rec.String("Status", "status"),
		ThumbColor:     rec.String("ThumbColor", "thumbColor"),
		MainColor:      rec.String("MainColor", "mainColor"),
		ModalTextColor: rec.String("ModalTextColor", "modalTextColor"),
		ModalBgColor:   rec.String("ModalBgColor", "modalBgColor"),
		ModalBgColorPC: rec.String("ModalBgColorPC", "modalBgColorPC"),
		ThumbnailImage: rec.OptString("thumbnailImage", "ThumbnailImage"),
		CoverImage:     rec.OptString("coverImage", "CoverImage"),
		Images:         rec.Strings("images", "Images"),
		Order:          rec.Number("Order", "order"),
		Number:         rec.String("Number", "number"),
		Year:           int(rec.Number("Year", "year")),
		Category:       rec.String("Category", "category"),
		TechType:       rec.String("TechType", "techType"),
	})
}

// NormalizeProject fills defaults on an already typed Project. It is idempotent.
func (n *Normalizer) NormalizeProject(p models.Project) models.Project {
	p.Number = strings.TrimSpace(p.Number)
	if p.ID == "" {
		p.ID = "proj_" + p.Number
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Status = normalizeStatus(p.Status)
	p.ThumbColor = orDefault(p.ThumbColor, DefaultThumbColor)
	p.MainColor = orDefault(p.MainColor, DefaultMainColor)
	p.ModalTextColor = orDefault(p.ModalTextColor, DefaultModalTextColor)
	p.ModalBgColor = orDefault(p.ModalBgColor, DefaultModalBgColor)
	p.ModalBgColorPC = orDefault(p.ModalBgColorPC, DefaultModalBgColorPC)
	p.ThumbnailImage = nilIfEmpty(p.ThumbnailImage)
	p.CoverImage = nilIfEmpty(p.CoverImage)
	p.Images = n.images.Resolve(p.Number, p.Images)
	if p.Year == 0 {
		p.Year = n.now().Year()
	}
	return p
}

// About maps a raw record to an AboutEntry.
func (n *Normalizer) About(rec Record) models.AboutEntry {
	return NormalizeAbout(models.AboutEntry{
		ID:        rec.String("ID", "id"),
		Section:   rec.String("Section", "section"),
		Title:     rec.String("Title", "title"),
		Detail:    rec.String("Detail", "detail"),
		StartDate: rec.String("StartDate", "startDate"),
		EndDate:   rec.OptString("EndDate", "endDate"),
		Link:      rec.OptString("Link", "link"),
	})
}

// NormalizeAbout fills defaults on an AboutEntry. It is idempotent.
func NormalizeAbout(e models.AboutEntry) models.AboutEntry {
	e.Section = strings.ToUpper(strings.TrimSpace(e.Section))
	e.EndDate = nilIfEmpty(e.EndDate)
	e.Link = nilIfEmpty(e.Link)
	return e
}

// Vault maps a raw record to a VaultItem.
func (n *Normalizer) Vault(rec Record) models.VaultItem {
	return NormalizeVault(models.VaultItem{
		ID:             rec.String("ID", "id"),
		Order:          rec.Number("Order", "order"),
		ThumbnailImage: rec.String("thumbnailImage", "ThumbnailImage"),
		FullImage:      rec.String("fullImage", "FullImage"),
	})
}

// NormalizeVault fills defaults on a VaultItem. It is idempotent.
func NormalizeVault(v models.VaultItem) models.VaultItem {
	if v.Order == 0 {
		v.Order = 1
	}
	n := formatOrder(v.Order)
	if v.ID == "" {
		v.ID = "va_" + n
	}
	if v.ThumbnailImage == "" || isRemoteStorage(v.ThumbnailImage) {
		v.ThumbnailImage = fmt.Sprintf("path/thumbnail/vault/vault%s.png", n)
	}
	if v.FullImage == "" || isRemoteStorage(v.FullImage) {
		v.FullImage = fmt.Sprintf("path/full/vault/vault%s.png", n)
	}
	return v
}

// Settings collapses Key/Value rows into a map. Rows without a key or
// without a value are dropped; later rows win.
func (n *Normalizer) Settings(rows []Record) models.Settings {
	out := models.Settings{}
	for _, row := range rows {
		key := strings.TrimSpace(row.String("Key", "key"))
		if key == "" {
			continue
		}
		if _, ok := row.lookup("Value", "value"); !ok {
			continue
		}
		out[key] = row.String("Value", "value")
	}
	return out
}

// NormalizeSettings returns a non-nil copy without blank keys. It is idempotent.
func NormalizeSettings(s models.Settings) models.Settings {
	out := make(models.Settings, len(s))
	for k, v := range s {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// SettingsOf converts decoded setting values to text. Nil values and blank
// keys are dropped; the result is never nil.
func SettingsOf(raw map[string]any) models.Settings {
	out := make(models.Settings, len(raw))
	for k, v := range raw {
		if strings.TrimSpace(k) == "" || v == nil {
			continue
		}
		out[k] = scalarString(first(v))
	}
	return out
}

// UniqueProjectIDs renames projects whose id repeats an earlier one by
// appending "-2", "-3" and so on. The first holder keeps the id. It returns
// the new ids in input order.
func UniqueProjectIDs(ps []models.Project) []string {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		seen[p.ID] = true
	}
	taken := make(map[string]bool, len(ps))
	var renamed []string
	for i := range ps {
		id := ps[i].ID
		if !taken[id] {
			taken[id] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", id, n)
			if !taken[candidate] && !seen[candidate] {
				ps[i].ID = candidate
				break
			}
		}
		taken[ps[i].ID] = true
		renamed = append(renamed, ps[i].ID)
	}
	return renamed
}

// SortProjects orders projects by ascending order, keeping ties in input order.
func SortProjects(ps []models.Project) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Order < ps[j].Order })
}

// SortVault orders vault items by ascending order, keeping ties in input order.
func SortVault(vs []models.VaultItem) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Order < vs[j].Order })
}

func normalizeStatus(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), models.StatusLocked) {
		return models.StatusLocked
	}
	return models.StatusUnlocked
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
