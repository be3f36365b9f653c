// Package analysis creates and reopens analysis directories: the working
// directory holding a copy of the model, the generated jobs and their
// provenance.
package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/config"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml"
)

const timestampLayout = "20060102150405"

type Analysis struct {
	ID       string
	Dir      string
	CellFile string
	// ModelFiles lists the cell file and every NeuroML file it includes,
	// relative to Dir.
	ModelFiles []string
	// LEMSFiles lists the extra LEMS definition files, relative to Dir.
	LEMSFiles []string
	Created   time.Time
}

// Setup creates <outputDir>/<timestamp>_<cell_file>, copies the model into it
// and records the configuration snapshot and the simulation.txt pointer.
func Setup(cfg *config.Config, outputDir string, now time.Time) (*Analysis, error) {
	if outputDir == "" {
		outputDir = "."
	}
	cellDir := cfg.Default.CellDir
	cellFile := cfg.Default.CellFile

	modelFiles, err := neuroml.IncludedFiles(cellFile, cellDir)
	if err != nil {
		return nil, &model.NotFoundError{What: "cell model", Path: filepath.Join(cellDir, cellFile)}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	dir, err := createDir(outputDir, now.UTC().Format(timestampLayout)+"_"+filepath.Base(cellFile))
	if err != nil {
		return nil, err
	}

	var lemsFiles []string
	for _, f := range cfg.Default.ExtraLEMSDefinitionFiles {
		lemsFiles = append(lemsFiles, filepath.Clean(f))
	}
	for _, f := range append(append([]string(nil), modelFiles...), lemsFiles...) {
		src := filepath.Join(cellDir, f)
		if err := artifacts.CopyFile(src, filepath.Join(dir, f)); err != nil {
			if os.IsNotExist(err) {
				return nil, &model.NotFoundError{What: "model file", Path: src}
			}
			return nil, fmt.Errorf("copy %s: %w", f, err)
		}
	}

	if err := config.WriteSnapshot(filepath.Join(dir, config.SnapshotFile), cfg); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if err := artifacts.WritePointer(outputDir, abs); err != nil {
		return nil, err
	}

	return &Analysis{
		ID:         idFor(dir),
		Dir:        dir,
		CellFile:   modelFiles[0],
		ModelFiles: modelFiles,
		LEMSFiles:  lemsFiles,
		Created:    now.UTC(),
	}, nil
}

// maxCollisions bounds the suffixes tried when analyses start within the
// same second.
const maxCollisions = 100

// createDir makes outputDir/name, or name_1, name_2... when taken.
func createDir(outputDir, name string) (string, error) {
	for n := 0; n < maxCollisions; n++ {
		dir := filepath.Join(outputDir, name)
		if n > 0 {
			dir = fmt.Sprintf("%s_%d", dir, n)
		}
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create analysis dir: %w", err)
		}
	}
	return "", fmt.Errorf("create analysis dir: %s and %d suffixed names already exist", filepath.Join(outputDir, name), maxCollisions-1)
}

// Open reuses an existing analysis directory. The model files are looked up
// in the copy held by the directory itself.
func Open(cfg *config.Config, dir string) (*Analysis, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &model.NotFoundError{What: "analysis directory", Path: dir}
	}
	cellFile := filepath.Clean(cfg.Default.CellFile)
	modelFiles, err := neuroml.IncludedFiles(cellFile, dir)
	if err != nil {
		return nil, &model.NotFoundError{What: "cell model", Path: filepath.Join(dir, cellFile)}
	}
	var lemsFiles []string
	for _, f := range cfg.Default.ExtraLEMSDefinitionFiles {
		lemsFiles = append(lemsFiles, filepath.Clean(f))
	}
	return &Analysis{
		ID:         idFor(dir),
		Dir:        dir,
		CellFile:   cellFile,
		ModelFiles: modelFiles,
		LEMSFiles:  lemsFiles,
		Created:    info.ModTime().UTC(),
	}, nil
}

// idFor derives a stable id from the absolute directory path, so a reopened
// analysis updates its own index entry.
func idFor(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(dir))).String()
}

// Cell parses the analysis copy of the cell.
func (a *Analysis) Cell() (*neuroml.Cell, error) {
	cell, err := neuroml.ReadCell(filepath.Join(a.Dir, a.CellFile))
	if err != nil {
		return nil, fmt.Errorf("read cell: %w", err)
	}
	return cell, nil
}

// Record summarises the analysis for the index.
func (a *Analysis) Record(cfg *config.Config) model.AnalysisRecord {
	return model.AnalysisRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 1, CodecVersion: 1},
		ID:              a.ID,
		Dir:             a.Dir,
		CellFile:        a.CellFile,
		Seed:            cfg.Default.Seed,
		Families:        cfg.EnabledFamilies(),
		CreatedAtUTC:    a.Created.Format(time.RFC3339),
	}
}
