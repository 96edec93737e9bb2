// Package geo converts ONS boundary shapefiles into WGS84 GeoJSON for web maps.
package geo

import (
	"archive/zip"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ReadShapefile loads every record of a shapefile as a GeoJSON feature.
// Coordinates in metres are treated as British National Grid and reprojected
// to WGS84. The first attribute whose name ends in CD becomes the feature id.
func ReadShapefile(shpPath string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	idField := -1
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
		if idField < 0 && strings.HasSuffix(strings.ToUpper(names[i]), "CD") {
			idField = i
		}
	}

	fc := &geojson.FeatureCollection{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		g := toGeometry(shape)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]interface{}, len(names))
		for i, name := range names {
			props[name] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}
		feature := &geojson.Feature{Geometry: g, Properties: props}
		if idField >= 0 {
			feature.ID, _ = props[names[idField]].(string)
		}
		fc.Features = append(fc.Features, feature)
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	return fc, nil
}

// ConvertFile converts a .shp file, or every .shp inside a .zip, to
// "<stem>_wgs84.geojson" files in outDir and returns their paths.
func ConvertFile(input, outDir string) ([]string, error) {
	log := zap.L().With(zap.String("component", "geo"))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "geo: create output dir")
	}

	var shapefiles []string
	switch strings.ToLower(filepath.Ext(input)) {
	case ".shp":
		shapefiles = []string{input}
	case ".zip":
		tmp, err := os.MkdirTemp("", "regioniq-geo-*")
		if err != nil {
			return nil, eris.Wrap(err, "geo: create extract dir")
		}
		defer os.RemoveAll(tmp) //nolint:errcheck

		if err := extractZIP(input, tmp); err != nil {
			return nil, eris.Wrapf(err, "geo: extract %s", input)
		}
		shapefiles, err = findShapefiles(tmp)
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("geo: unsupported input %q (want .shp or .zip)", input)
	}

	var written []string
	for _, shpPath := range shapefiles {
		fc, err := ReadShapefile(shpPath)
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(filepath.Base(shpPath), filepath.Ext(shpPath))
		out := filepath.Join(outDir, stem+"_wgs84.geojson")
		if err := writeGeoJSON(out, fc); err != nil {
			return nil, err
		}
		log.Info("wrote geojson", zap.String("path", out), zap.Int("features", len(fc.Features)))
		written = append(written, out)
	}
	return written, nil
}

func writeGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "geo: encode geojson")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geo: write %s", path)
	}
	return nil
}

func toGeometry(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		lon, lat := toWGS84(s.X, s.Y)
		return geom.NewPointFlat(geom.XY, []float64{lon, lat})
	case *shp.PolyLine:
		return polyLineToMultiLineString(s)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

func toWGS84(x, y float64) (float64, float64) {
	if IsProjected(x, y) {
		return BNGToWGS84(x, y)
	}
	return x, y
}

// partRange returns the point index range of part i.
func partRange(parts []int32, numPoints, i int) (int, int) {
	start := int(parts[i])
	end := numPoints
	if i+1 < len(parts) {
		end = int(parts[i+1])
	}
	return start, end
}

func flatPoints(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		lon, lat := toWGS84(p.X, p.Y)
		flat = append(flat, lon, lat)
	}
	return flat
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for i := range pl.Parts {
		start, end := partRange(pl.Parts, len(pl.Points), i)
		ls := geom.NewLineStringFlat(geom.XY, flatPoints(pl.Points[start:end]))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("geo: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon groups shapefile rings into polygons. Clockwise rings
// start a new polygon; counter-clockwise rings are holes of the previous one.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("geo: skipping malformed polygon", zap.Error(err))
		}
	}

	for i := range p.Parts {
		start, end := partRange(p.Parts, len(p.Points), i)
		pts := p.Points[start:end]
		if len(pts) < 4 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flatPoints(pts))
		if current == nil || signedArea(pts) <= 0 {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []shp.Point) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}
		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}
	return nil
}

func findShapefiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".shp") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "geo: find shapefiles")
	}
	if len(out) == 0 {
		return nil, eris.Errorf("geo: no .shp file found in archive")
	}
	return out, nil
}
