// Package artifacts reads and writes the files that make up an analysis
// directory's provenance.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"neuromlcap/internal/model"
)

const (
	SelectionFile      = "segments_recorded.json"
	InputSelectionFile = "segments_poisson_inputs.json"
	SweepManifestFile  = "sims_fi.json"
	TrialManifestFile  = "sims_poisson_inputs.json"
	PointerFile        = "simulation.txt"
	FICurveFile        = "fi_curve.csv"

	indexFile = "analysis_index.json"
)

// ManifestFile returns the manifest file name of a family.
func ManifestFile(family model.FamilyKind) (string, error) {
	switch family {
	case model.FamilySweep:
		return SweepManifestFile, nil
	case model.FamilyTrial:
		return TrialManifestFile, nil
	default:
		return "", fmt.Errorf("unknown job family: %s", family)
	}
}

func WriteSelection(dir string, sel *model.Selection) error {
	return writeJSON(filepath.Join(dir, SelectionFile), sel)
}

func ReadSelection(dir string) (*model.Selection, bool, error) {
	return readSelection(filepath.Join(dir, SelectionFile))
}

func WriteInputSelection(dir string, sel *model.Selection) error {
	return writeJSON(filepath.Join(dir, InputSelectionFile), sel)
}

func ReadInputSelection(dir string) (*model.Selection, bool, error) {
	return readSelection(filepath.Join(dir, InputSelectionFile))
}

func readSelection(path string) (*model.Selection, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	sel := model.NewSelection()
	if err := json.Unmarshal(data, sel); err != nil {
		return nil, false, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sel, true, nil
}

func WriteManifest(dir string, m *model.Manifest) error {
	name, err := ManifestFile(m.Family)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, name), m)
}

func ReadManifest(dir string, family model.FamilyKind) (*model.Manifest, bool, error) {
	name, err := ManifestFile(family)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	m := model.NewManifest(family)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}
	return m, true, nil
}

// WritePointer records the most recent analysis directory in outputDir.
func WritePointer(outputDir, analysisDir string) error {
	return os.WriteFile(filepath.Join(outputDir, PointerFile), []byte(analysisDir+"\n"), 0o644)
}

func ReadPointer(outputDir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, PointerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// FIPoint is one point of a firing-rate versus injected-current curve.
type FIPoint struct {
	Current float64
	RateHz  float64
}

func WriteFICurve(dir string, points []FIPoint) error {
	file, err := os.Create(filepath.Join(dir, FICurveFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"current_nA", "rate_hz"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{
			strconv.FormatFloat(p.Current, 'f', -1, 64),
			strconv.FormatFloat(p.RateHz, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFICurve(dir string) ([]FIPoint, bool, error) {
	file, err := os.Open(filepath.Join(dir, FICurveFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []FIPoint{}, true, nil
		}
		return nil, false, err
	}
	points := make([]FIPoint, 0, 16)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fi curve row must have 2 columns")
		}
		current, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, false, err
		}
		rate, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		points = append(points, FIPoint{Current: current, RateHz: rate})
	}
	return points, true, nil
}

// AppendIndex upserts an analysis record into the output directory's index.
func AppendIndex(outputDir string, rec model.AnalysisRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("analysis id is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	index, err := ListIndex(outputDir)
	if err != nil {
		return err
	}
	for i := range index {
		if index[i].ID == rec.ID {
			index[i] = rec
			return writeJSON(filepath.Join(outputDir, indexFile), index)
		}
	}
	index = append(index, rec)
	return writeJSON(filepath.Join(outputDir, indexFile), index)
}

// ListIndex returns the indexed analyses, newest first.
func ListIndex(outputDir string) ([]model.AnalysisRecord, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []model.AnalysisRecord{}, nil
		}
		return nil, err
	}

	var records []model.AnalysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtUTC > records[j].CreatedAtUTC
	})
	return records, nil
}

// Export copies the provenance files of an analysis directory into
// outDir/<base name of dir>. Optional files are skipped when absent.
func Export(dir, outDir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", err
	}
	dst := filepath.Join(outDir, filepath.Base(dir))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	if err := CopyFile(filepath.Join(dir, SelectionFile), filepath.Join(dst, SelectionFile)); err != nil {
		return "", err
	}
	for _, file := range []string{InputSelectionFile, SweepManifestFile, TrialManifestFile, FICurveFile, "config.toml"} {
		src := filepath.Join(dir, file)
		if _, err := os.Stat(src); err == nil {
			if err := CopyFile(src, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}
	return dst, nil
}

// writeJSON replaces path atomically so a crash never leaves a half-written
// provenance file behind.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
