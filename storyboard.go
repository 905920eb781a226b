package gifstream

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vchimishuk/chub/cue"
)

var (
	errNoSources    = errors.New("no source images")
	errNoStoryboard = errors.New("storyboard lists no files")
)

var imageExts = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

func isImage(file string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(file))]
	return ok
}

// readStoryboard returns the FILE entries of a cue sheet in order, relative
// to the directory containing the sheet. Each file is one frame.
func readStoryboard(file string) ([]string, error) {
	sheet, err := cue.ParseFile(file)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range sheet.Files {
		files = append(files, filepath.Join(filepath.Dir(file), filepath.Clean(strings.ReplaceAll(f.Name, "\\", string(os.PathSeparator)))))
	}
	if len(files) == 0 {
		return nil, errNoStoryboard
	}
	return files, nil
}

// Sorted image files in dir, hidden files are ignored
func readDirectory(dir string) ([]string, error) {
	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, info := range infos {
		if info.Name()[0] == '.' || !info.Mode().IsRegular() || !isImage(info.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, info.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Sources expands args into the ordered list of frame images. Each argument
// is an image file, a directory of images or a cue sheet storyboard.
func Sources(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		switch {
		case info.IsDir():
			dir, err := readDirectory(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, dir...)
		case strings.ToLower(filepath.Ext(arg)) == ".cue":
			sheet, err := readStoryboard(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, sheet...)
		default:
			files = append(files, arg)
		}
	}
	if len(files) == 0 {
		return nil, errNoSources
	}
	return files, nil
}
