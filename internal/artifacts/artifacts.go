// Package artifacts describes the fixed set of files produced per recording
// folder and resolves which of them exist on disk for an upload attempt.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Logical artifact file names inside a recording folder.
const (
	Video         = "video.mp4"
	VideoFallback = "temp-video.webm"
	Keylog        = "keylog.txt"
	Metadata      = "metadata.json"
	Controls      = "controls.json"
	Thumbnail     = "thumbnail.png"
)

// ErrVideoMissing is returned when a folder holds neither the final video
// nor the intermediate fallback. A recording without video is unuploadable.
var ErrVideoMissing = errors.New("no video artifact in folder")

// Names returns every logical name a session-URI set must cover. Both video
// variants are listed: the backend issues endpoints for all of them, the
// agent uploads whichever exists.
func Names() []string {
	return []string{Video, VideoFallback, Keylog, Metadata, Controls, Thumbnail}
}

// File is one artifact present on disk.
type File struct {
	Name string
	Path string
	Size int64
}

// Resolve inspects dir and returns the artifacts to upload, sorted by
// logical name. Exactly one of Video/VideoFallback is included, preferring
// Video. The remaining artifacts are optional: a missing keylog just means
// none was captured.
func Resolve(dir string) ([]File, error) {
	var files []File

	video, err := statIn(dir, Video)
	if err != nil {
		return nil, err
	}
	if video == nil {
		if video, err = statIn(dir, VideoFallback); err != nil {
			return nil, err
		}
	}
	if video == nil {
		return nil, fmt.Errorf("%s: %w", dir, ErrVideoMissing)
	}
	files = append(files, *video)

	for _, name := range []string{Keylog, Metadata, Controls, Thumbnail} {
		f, err := statIn(dir, name)
		if err != nil {
			return nil, err
		}
		if f != nil {
			files = append(files, *f)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func statIn(dir, name string) (*File, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, nil
	}
	return &File{Name: name, Path: path, Size: info.Size()}, nil
}
