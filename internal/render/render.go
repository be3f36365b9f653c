// Package render draws the analysis plots with gonum/plot: projected cell
// morphologies with the selected segments marked, per-job membrane potential
// traces and the f-I curve.
package render

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"

	"neuromlcap/internal/artifacts"
	"neuromlcap/internal/model"
	"neuromlcap/internal/neuroml"
)

const FICurveImage = "fi_curve.png"

var neuriteColor = color.NRGBA{R: 90, G: 90, B: 90, A: 255}

// Renderer writes PNG files into Dir.
type Renderer struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
}

func New(dir string) *Renderer {
	return &Renderer{Dir: dir, Width: 8 * vg.Inch, Height: 6 * vg.Inch}
}

// Morphology projects the cell onto plane ("xy", "yz" or "zx") and marks the
// segments of sel with their markers. The file is <cell>-<plane>-<suffix>.png.
func (r *Renderer) Morphology(cell *neuroml.Cell, sel *model.Selection, suffix, plane string) (string, error) {
	project, err := projection(plane)
	if err != nil {
		return "", err
	}
	p := plot.New()
	p.Title.Text = suffix
	p.X.Label.Text = string(plane[0]) + " (μm)"
	p.Y.Label.Text = string(plane[1]) + " (μm)"

	for _, seg := range cell.Morphology.Segments {
		prox, dist, err := cell.Endpoints(seg.ID)
		if err != nil {
			return "", err
		}
		x0, y0 := project(prox)
		x1, y1 := project(dist)
		line, err := plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y1}})
		if err != nil {
			return "", err
		}
		line.Color = neuriteColor
		line.Width = vg.Points(math.Max(0.5, math.Min(dist.Diameter, 4)))
		p.Add(line)
	}

	for _, ch := range model.Channels(sel) {
		id, err := strconv.Atoi(ch.Segment)
		if err != nil {
			return "", fmt.Errorf("segment id %q: %w", ch.Segment, err)
		}
		_, dist, err := cell.Endpoints(id)
		if err != nil {
			return "", err
		}
		x, y := project(dist)
		sc, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
		if err != nil {
			return "", err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Color = rgba(ch.Marker.Color)
		sc.GlyphStyle.Radius = vg.Points(ch.Marker.Size / 2)
		p.Add(sc)
	}

	name := fmt.Sprintf("%s-%s-%s.png", cell.ID, plane, suffix)
	return name, r.save(p, name)
}

// TimeSeries plots every channel of a trace, colored like the selection, and
// writes <job>.png.
func (r *Renderer) TimeSeries(jobID, label string, channels []model.Channel, tr *Trace) (string, error) {
	if len(tr.Columns) != len(channels) {
		return "", fmt.Errorf("job %s: trace has %d columns for %d channels", jobID, len(tr.Columns), len(channels))
	}
	p := plot.New()
	p.Title.Text = label
	p.X.Label.Text = "time (ms)"
	p.Y.Label.Text = "membrane potential (mV)"

	ms := tr.Millis()
	for i, ch := range channels {
		mv := tr.Millivolts(i)
		pts := make(plotter.XYs, len(ms))
		for k := range ms {
			pts[k] = plotter.XY{X: ms[k], Y: mv[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", err
		}
		line.Color = rgba(ch.Marker.Color)
		p.Add(line)
	}

	name := jobID + ".png"
	return name, r.save(p, name)
}

// FICurve plots firing rate against injected current.
func (r *Renderer) FICurve(points []artifacts.FIPoint) (string, error) {
	p := plot.New()
	p.Title.Text = "f-I curve"
	p.X.Label.Text = "current (nA)"
	p.Y.Label.Text = "firing rate (Hz)"

	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i] = plotter.XY{X: pt.Current, Y: pt.RateHz}
	}
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return "", err
	}
	scatter.Shape = draw.CircleGlyph{}
	p.Add(line, scatter)
	return FICurveImage, r.save(p, FICurveImage)
}

func (r *Renderer) save(p *plot.Plot, name string) error {
	path := filepath.Join(r.Dir, name)
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return &model.ExternalToolError{Tool: "render", File: path, Err: err}
	}
	return nil
}

func projection(plane string) (func(neuroml.Point3D) (float64, float64), error) {
	switch plane {
	case "xy":
		return func(p neuroml.Point3D) (float64, float64) { return p.X, p.Y }, nil
	case "yz":
		return func(p neuroml.Point3D) (float64, float64) { return p.Y, p.Z }, nil
	case "zx":
		return func(p neuroml.Point3D) (float64, float64) { return p.Z, p.X }, nil
	default:
		return nil, fmt.Errorf("unknown plane %q", plane)
	}
}

func rgba(c model.Color) color.NRGBA {
	ch := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return color.NRGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}
