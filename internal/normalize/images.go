package normalize

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

const (
	// ProjectAssetRoot is the site-relative directory holding per-project folders.
	ProjectAssetRoot = "img/projects"
	// SyntheticImageCount bounds the guessed image list for a project folder.
	SyntheticImageCount = 30
)

// DefaultFolders maps a project number to its local asset folder.
var DefaultFolders = FolderMap{
	"01": "99das",
	"02": "ridp",
	"03": "iplex",
	"04": "valoo",
	"05": "whybox",
}

// FolderMap maps project numbers to asset folder names.
type FolderMap map[string]string

// Lookup resolves number to a folder. Single digits also match their
// zero-padded form, so a numeric "5" finds "05".
func (m FolderMap) Lookup(number string) (string, bool) {
	number = strings.TrimSpace(number)
	if f, ok := m[number]; ok {
		return f, true
	}
	if len(number) == 1 && number[0] >= '0' && number[0] <= '9' {
		f, ok := m["0"+number]
		return f, ok
	}
	return "", false
}

// AssetLister enumerates img<N>.<ext> files in a site-relative directory,
// sorted by N, returning site-relative paths.
type AssetLister interface {
	ListImages(dir string) ([]string, error)
}

// ImageResolver decides the images list of a project.
type ImageResolver struct {
	Folders FolderMap
	// Lister is optional; without it an empty list falls back to synthetic paths.
	Lister AssetLister
}

// Resolve returns the images for a project. Non-empty lists only have remote
// storage URLs rewritten to their local mirror. Empty lists for a known folder
// come from the local folder, or from SyntheticImages when that yields nothing.
func (r ImageResolver) Resolve(number string, images []string) []string {
	folder, known := r.Folders.Lookup(number)
	if len(images) > 0 {
		if !known {
			return images
		}
		out := make([]string, len(images))
		for i, img := range images {
			if isRemoteStorage(img) {
				out[i] = fmt.Sprintf("%s/%s/img%d.%s", ProjectAssetRoot, folder, i+1, remoteExt(img))
				continue
			}
			out[i] = img
		}
		return out
	}
	if !known {
		return []string{}
	}
	if r.Lister != nil {
		found, err := r.Lister.ListImages(path.Join(ProjectAssetRoot, folder))
		if err == nil && len(found) > 0 {
			return found
		}
	}
	return SyntheticImages(folder)
}

// Relink rescans the local folder of a project. It returns the files found
// and true when they differ from current. Projects without a known folder or
// without local files keep their list.
func (r ImageResolver) Relink(number string, current []string) ([]string, bool) {
	folder, known := r.Folders.Lookup(number)
	if !known || r.Lister == nil {
		return current, false
	}
	found, err := r.Lister.ListImages(path.Join(ProjectAssetRoot, folder))
	if err != nil || len(found) == 0 {
		return current, false
	}
	if slices.Equal(found, current) {
		return current, false
	}
	return found, true
}

// SyntheticImages lists SyntheticImageCount hypothetical paths for folder.
// Existence is not checked; the media loader skips missing files.
func SyntheticImages(folder string) []string {
	out := make([]string, SyntheticImageCount)
	for i := range out {
		out[i] = fmt.Sprintf("%s/%s/img%d.jpg", ProjectAssetRoot, folder, i+1)
	}
	return out
}

// isRemoteStorage reports whether u points at the content store's expiring
// file hosting rather than a mirrored local path.
func isRemoteStorage(u string) bool {
	return strings.Contains(u, "amazonaws")
}

func remoteExt(u string) string {
	switch {
	case strings.Contains(u, ".gif"):
		return "gif"
	case strings.Contains(u, ".png"):
		return "png"
	default:
		return "jpg"
	}
}
