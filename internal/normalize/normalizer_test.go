package normalize

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

type fakeLister struct {
	files map[string][]string
	err   error
	calls int
}

func (f *fakeLister) ListImages(dir string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.files[dir], nil
}

func TestProject_AllDefaults(t *testing.T) {
	n := New(WithClock(fixedNow))
	p := n.Project(Record{})

	if p.ID != "proj_" {
		t.Errorf("id = %q, want proj_", p.ID)
	}
	if p.Status != models.StatusUnlocked {
		t.Errorf("status = %q", p.Status)
	}
	if p.ThumbColor != "#000000" || p.MainColor != "#000000" || p.ModalTextColor != "#000000" {
		t.Errorf("dark colors = %q %q %q", p.ThumbColor, p.MainColor, p.ModalTextColor)
	}
	if p.ModalBgColor != "#FFFFFF" || p.ModalBgColorPC != "#FFFFFF" {
		t.Errorf("light colors = %q %q", p.ModalBgColor, p.ModalBgColorPC)
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil", p.Tags)
	}
	if p.Images == nil || len(p.Images) != 0 {
		t.Errorf("images = %#v, want empty non-nil for unknown folder", p.Images)
	}
	if p.ThumbnailImage != nil || p.CoverImage != nil {
		t.Error("image pointers should be nil")
	}
	if p.Order != 0 {
		t.Errorf("order = %v", p.Order)
	}
	if p.Year != 2024 {
		t.Errorf("year = %d, want 2024", p.Year)
	}
}

func TestProject_RemoteFields(t *testing.T) {
	n := New(WithClock(fixedNow))
	p := n.Project(Record{
		"Project ID": "alpha",
		"Title":      "Alpha",
		"Number":     "02",
		"Status":     "locked",
		"Order":      float64(3),
		"Year":       float64(2021),
		"Category":   []string{"Branding", "Web"},
		"TechType":   []any{"Figma"},
		"tags":       []string{"a", "", "b"},
		"coverImage": []string{"https://cdn.example/cover.png"},
		"images":     []string{"https://prod-files.s3.amazonaws.com/x/photo.gif?sig=1", "img/custom.png"},
	})

	if p.ID != "alpha" || p.Title != "Alpha" || p.Number != "02" {
		t.Errorf("identity = %q %q %q", p.ID, p.Title, p.Number)
	}
	if p.Status != models.StatusLocked {
		t.Errorf("status = %q", p.Status)
	}
	if p.Category != "Branding" || p.TechType != "Figma" {
		t.Errorf("category/techType = %q/%q", p.Category, p.TechType)
	}
	if !reflect.DeepEqual(p.Tags, []string{"a", "b"}) {
		t.Errorf("tags = %v", p.Tags)
	}
	if p.CoverImage == nil || *p.CoverImage != "https://cdn.example/cover.png" {
		t.Errorf("cover = %v", p.CoverImage)
	}
	want := []string{"img/projects/ridp/img1.gif", "img/custom.png"}
	if !reflect.DeepEqual(p.Images, want) {
		t.Errorf("images = %v, want %v", p.Images, want)
	}
	if p.Year != 2021 || p.Order != 3 {
		t.Errorf("year/order = %d/%v", p.Year, p.Order)
	}
}

func TestProject_SyntheticImagesForKnownFolder(t *testing.T) {
	n := New(WithClock(fixedNow))
	p := n.Project(Record{"Number": "05", "images": []string{}})
	if len(p.Images) != SyntheticImageCount {
		t.Fatalf("len(images) = %d, want %d", len(p.Images), SyntheticImageCount)
	}
	if p.Images[0] != "img/projects/whybox/img1.jpg" {
		t.Errorf("first image = %q", p.Images[0])
	}
}

func TestProject_LocalImagesPreferred(t *testing.T) {
	lister := &fakeLister{files: map[string][]string{
		"img/projects/iplex": {"img/projects/iplex/img1.gif", "img/projects/iplex/img2.jpg"},
	}}
	n := New(WithClock(fixedNow), WithAssets(lister))
	p := n.Project(Record{"Number": "03"})
	if !reflect.DeepEqual(p.Images, lister.files["img/projects/iplex"]) {
		t.Errorf("images = %v", p.Images)
	}
}

func TestProject_LocalListingFailureFallsBack(t *testing.T) {
	n := New(WithClock(fixedNow), WithAssets(&fakeLister{err: errors.New("boom")}))
	p := n.Project(Record{"Number": "04"})
	if len(p.Images) != SyntheticImageCount {
		t.Errorf("len(images) = %d", len(p.Images))
	}
}

func TestImageResolver_Relink(t *testing.T) {
	local := []string{"img/projects/ridp/img1.jpg", "img/projects/ridp/img2.png"}
	r := ImageResolver{Folders: DefaultFolders, Lister: &fakeLister{files: map[string][]string{
		"img/projects/ridp": local,
	}}}

	synthetic := SyntheticImages("ridp")
	got, changed := r.Relink("02", synthetic)
	if !changed || !reflect.DeepEqual(got, local) {
		t.Errorf("Relink(02) = %v, %v", got, changed)
	}
	if _, changed := r.Relink("02", local); changed {
		t.Error("unchanged list reported as changed")
	}

	empty := []string{"img/projects/99das/img1.jpg"}
	if got, changed := r.Relink("01", empty); changed || !reflect.DeepEqual(got, empty) {
		t.Errorf("folder without files must keep its list: %v", got)
	}
	if _, changed := r.Relink("77", nil); changed {
		t.Error("unknown folder must not change")
	}
	if _, changed := (ImageResolver{Folders: DefaultFolders}).Relink("02", nil); changed {
		t.Error("no lister means no change")
	}
}

func TestFolderMap_LookupPadsSingleDigit(t *testing.T) {
	if f, ok := DefaultFolders.Lookup("5"); !ok || f != "whybox" {
		t.Errorf("Lookup(5) = %q, %v", f, ok)
	}
	if _, ok := DefaultFolders.Lookup("42"); ok {
		t.Error("Lookup(42) should miss")
	}
}

func TestAbout_Defaults(t *testing.T) {
	n := New()
	e := n.About(Record{"Section": "experience", "Title": "Studio", "EndDate": nil, "Link": ""})
	if e.Section != models.SectionExperience {
		t.Errorf("section = %q", e.Section)
	}
	if e.EndDate != nil || e.Link != nil {
		t.Errorf("endDate/link = %v/%v, want nil", e.EndDate, e.Link)
	}
	if e.ID != "" || e.Detail != "" || e.StartDate != "" {
		t.Errorf("unexpected values: %+v", e)
	}
}

func TestVault_Defaults(t *testing.T) {
	n := New()
	v := n.Vault(Record{})
	want := models.VaultItem{
		ID:             "va_1",
		Order:          1,
		ThumbnailImage: "path/thumbnail/vault/vault1.png",
		FullImage:      "path/full/vault/vault1.png",
	}
	if v != want {
		t.Errorf("vault = %+v, want %+v", v, want)
	}

	v = n.Vault(Record{"Order": float64(7), "fullImage": []string{"https://s3.amazonaws.com/f.png"}})
	if v.ID != "va_7" || v.FullImage != "path/full/vault/vault7.png" {
		t.Errorf("vault = %+v", v)
	}
}

func TestSettings_Collapse(t *testing.T) {
	n := New()
	s := n.Settings([]Record{
		{"Key": "PASSWORD", "Value": "secret"},
		{"Key": "", "Value": "ignored"},
		{"Key": "EMPTY"},
		{"Key": "TOTAL_PROJECTS_COUNT", "Value": float64(12)},
	})
	want := models.Settings{"PASSWORD": "secret", "TOTAL_PROJECTS_COUNT": "12"}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("settings = %v, want %v", s, want)
	}
}

func TestIdempotence(t *testing.T) {
	n := New(WithClock(fixedNow))

	t.Run("project", func(t *testing.T) {
		for _, rec := range []Record{
			{},
			{"Number": "01", "Status": "LOCKED", "Order": float64(2)},
			{"Number": "02", "images": []string{"https://bucket.s3.amazonaws.com/a.png"}, "Category": []string{"X"}},
			{"Number": "99", "thumbnailImage": "t.png", "Year": float64(2019)},
		} {
			once := n.Project(rec)
			again, err := RecordOf(once)
			if err != nil {
				t.Fatal(err)
			}
			if twice := n.Project(again); !reflect.DeepEqual(once, twice) {
				t.Errorf("not idempotent:\n once=%+v\ntwice=%+v", once, twice)
			}
			if typed := n.NormalizeProject(once); !reflect.DeepEqual(once, typed) {
				t.Errorf("typed re-normalize changed project: %+v", typed)
			}
		}
	})

	t.Run("about", func(t *testing.T) {
		once := n.About(Record{"Section": "Research", "Link": "https://doi.example/1", "StartDate": "2020"})
		again, err := RecordOf(once)
		if err != nil {
			t.Fatal(err)
		}
		if twice := n.About(again); !reflect.DeepEqual(once, twice) {
			t.Errorf("about not idempotent: %+v vs %+v", once, twice)
		}
	})

	t.Run("vault", func(t *testing.T) {
		once := n.Vault(Record{"Order": float64(3)})
		again, err := RecordOf(once)
		if err != nil {
			t.Fatal(err)
		}
		if twice := n.Vault(again); once != twice {
			t.Errorf("vault not idempotent: %+v vs %+v", once, twice)
		}
	})

	t.Run("settings", func(t *testing.T) {
		once := n.Settings([]Record{{"Key": "A", "Value": "1"}})
		if twice := NormalizeSettings(once); !reflect.DeepEqual(once, twice) {
			t.Errorf("settings not idempotent: %v vs %v", once, twice)
		}
		if got := NormalizeSettings(nil); got == nil {
			t.Error("NormalizeSettings(nil) should be non-nil")
		}
	})
}

func TestSortProjects_Stable(t *testing.T) {
	ps := []models.Project{
		{ID: "a", Order: 2},
		{ID: "b", Order: 1},
		{ID: "c", Order: 2},
		{ID: "d", Order: 0},
		{ID: "e", Order: 1},
	}
	SortProjects(ps)
	var got []string
	for _, p := range ps {
		got = append(got, p.ID)
	}
	if want := []string{"d", "b", "e", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortVault_Stable(t *testing.T) {
	vs := []models.VaultItem{{ID: "x", Order: 3}, {ID: "y", Order: 1}, {ID: "z", Order: 3}}
	SortVault(vs)
	if vs[0].ID != "y" || vs[1].ID != "x" || vs[2].ID != "z" {
		t.Errorf("vault order = %+v", vs)
	}
}

func TestSettingsOf_ScalarValues(t *testing.T) {
	got := SettingsOf(map[string]any{
		"PASSWORD": float64(1234),
		"FLAG":     true,
		"LIST":     []any{"a", "b"},
		"EMPTY":    nil,
		" ":        "x",
	})
	want := models.Settings{"PASSWORD": "1234", "FLAG": "true", "LIST": "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SettingsOf = %v, want %v", got, want)
	}
	if SettingsOf(nil) == nil {
		t.Error("nil input should give an empty map")
	}
}

func TestUniqueProjectIDs(t *testing.T) {
	ps := []models.Project{
		{ID: "proj_"}, {ID: "proj_01"}, {ID: "proj_"}, {ID: "proj_-2"}, {ID: "proj_01"}, {ID: "proj_"},
	}
	renamed := UniqueProjectIDs(ps)

	var ids []string
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	want := []string{"proj_", "proj_01", "proj_-3", "proj_-2", "proj_01-2", "proj_-4"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if !reflect.DeepEqual(renamed, []string{"proj_-3", "proj_01-2", "proj_-4"}) {
		t.Errorf("renamed = %v", renamed)
	}
	if UniqueProjectIDs([]models.Project{{ID: "a"}, {ID: "b"}}) != nil {
		t.Error("distinct ids should not be renamed")
	}
}
