package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extensionMediaType classifies file extensions by media category.
// Extensions not present here are skipped by the scanner.
var extensionMediaType = map[string]MediaType{
	".cr2": MediaRAW,
	".cr3": MediaRAW,
	".nef": MediaRAW,
	".arw": MediaRAW,
	".dng": MediaRAW,
	".raf": MediaRAW,
	".rw2": MediaRAW,
	".orf": MediaRAW,
	".pef": MediaRAW,
	".srw": MediaRAW,

	".jpg":  MediaPhoto,
	".jpeg": MediaPhoto,
	".png":  MediaPhoto,
	".heic": MediaPhoto,
	".tif":  MediaPhoto,
	".tiff": MediaPhoto,

	".mp4": MediaVideo,
	".mov": MediaVideo,
}

// scanProgressInterval controls how often scan.progress events fire
// during the walk.
const scanProgressInterval = 100

// scanSource walks sourcePath and returns every recognized media
// file, sorted deterministically by SrcRel. Hidden files and
// directories (leading dot) are skipped. The walk itself is not
// parallelized; per-file work happens later in the pipeline.
func scanSource(sourcePath string, em *emitter) ([]ScannedFile, error) {
	var files []ScannedFile
	discovered := 0

	err := filepath.Walk(sourcePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") && path != sourcePath {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		mt, ok := extensionMediaType[ext]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		files = append(files, ScannedFile{
			SrcRel:    rel,
			AbsPath:   path,
			Bytes:     info.Size(),
			MediaType: mt,
		})

		discovered++
		if discovered%scanProgressInterval == 0 {
			em.emit(EventScanProgress, EvScanProgress{DiscoveredCount: discovered})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].SrcRel < files[j].SrcRel
	})

	em.emit(EventScanProgress, EvScanProgress{DiscoveredCount: len(files)})

	return files, nil
}
