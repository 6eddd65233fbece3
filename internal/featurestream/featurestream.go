// Package featurestream implements Gwen's Feature Stream assembler
// (§4.F): walking user-supplied input paths into a deterministic
// sequence of FeatureUnits, each carrying its inherited `.meta` files
// and at most one associated data record.
//
// Grounded on the teacher's module-resolution walk
// (internal/evaluator/module_loader.go's path-join-then-read, and
// internal/svc/resolver/resolver.go's actor-wrapped variant of the
// same) generalised from "resolve one module file" to "walk a tree
// and assemble every unit it contains" — stdlib `filepath.WalkDir`
// plays the role the teacher's `ioutil.ReadFile` plays for a single
// file, since no pack example imports a third-party filesystem-walk
// or glob library.
package featurestream

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
)

const (
	featureExt = ".feature"
	metaExt    = ".meta"
	csvExt     = ".csv"
	jsonExt    = ".json"
)

// Unit is an alias of ast.Unit: the feature stream hands out plain
// ast.Unit values and adds no fields of its own.
type Unit = ast.Unit

// Assemble walks every input path (file or directory) and returns the
// deterministic, ordered list of FeatureUnits it contains (§4.F). When
// explicitDataFile is non-empty it overrides any per-directory data
// file and is shared by every unit that would otherwise have none.
func Assemble(inputs []string, explicitDataFile string) ([]Unit, error) {
	// Caching the parsed data files is a performance optimisation, not
	// a correctness requirement, so a cache we can't open (read-only
	// working directory, no sqlite3 driver available) degrades to
	// always-reparse rather than failing the whole assemble.
	cache, err := openDataFileCache(".")
	if err != nil {
		cache = nil
	}
	defer cache.Close()

	var units []Unit
	for _, root := range inputs {
		info, err := os.Stat(root)
		if err != nil {
			return nil, gwenerr.Wrap(gwenerr.IO, err, "cannot stat input path %q", root)
		}
		if !info.IsDir() {
			u, err := assembleSingleFile(root, explicitDataFile, cache)
			if err != nil {
				return nil, err
			}
			units = append(units, u...)
			continue
		}
		u, err := assembleDir(root, explicitDataFile, cache)
		if err != nil {
			return nil, err
		}
		units = append(units, u...)
	}
	return units, nil
}

func assembleSingleFile(path, explicitDataFile string, cache *dataFileCache) ([]Unit, error) {
	if !strings.HasSuffix(path, featureExt) {
		return nil, nil
	}
	metaFiles, err := inheritedMetaFiles(filepath.Dir(path), filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return unitsFor(path, metaFiles, explicitDataFile, cache)
}

// assembleDir walks root, collecting one unit-group per directory that
// contains `.feature` files, resolving `.meta` inheritance along the
// way (§4.F "union of all .meta files on the path from an ancestor
// directory of the input root down to the unit's directory, ordered
// parent-before-child").
func assembleDir(root, explicitDataFile string, cache *dataFileCache) ([]Unit, error) {
	dirFeatures := map[string][]string{}
	var dirOrder []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, featureExt) {
			dir := filepath.Dir(path)
			if _, seen := dirFeatures[dir]; !seen {
				dirOrder = append(dirOrder, dir)
			}
			dirFeatures[dir] = append(dirFeatures[dir], path)
		}
		return nil
	})
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "walking %q", root)
	}

	sort.Strings(dirOrder)
	var units []Unit
	for _, dir := range dirOrder {
		files := dirFeatures[dir]
		sort.Strings(files)
		metaFiles, err := inheritedMetaFiles(root, dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			u, err := unitsFor(f, metaFiles, explicitDataFile, cache)
			if err != nil {
				return nil, err
			}
			units = append(units, u...)
		}
	}
	return units, nil
}

// inheritedMetaFiles returns the ordered union of `.meta` files found
// in every directory from root down to dir inclusive, parent before
// child (§4.F, concrete scenario S4).
func inheritedMetaFiles(root, dir string) ([]string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "resolving %q relative to %q", dir, root)
	}
	var segments []string
	if rel != "." {
		segments = strings.Split(rel, string(filepath.Separator))
	}

	var metaFiles []string
	cur := root
	collect := func(d string) error {
		entries, err := os.ReadDir(d)
		if err != nil {
			return err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), metaExt) {
				found = append(found, filepath.Join(d, e.Name()))
			}
		}
		sort.Strings(found)
		metaFiles = append(metaFiles, found...)
		return nil
	}
	if err := collect(cur); err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "reading %q", cur)
	}
	for _, seg := range segments {
		cur = filepath.Join(cur, seg)
		if err := collect(cur); err != nil {
			return nil, gwenerr.Wrap(gwenerr.IO, err, "reading %q", cur)
		}
	}
	return metaFiles, nil
}

// unitsFor resolves the data file (if any) beside featureFile and
// expands it into one Unit per record, or a single Unit with no
// record when there is none (§4.F).
func unitsFor(featureFile string, metaFiles []string, explicitDataFile string, cache *dataFileCache) ([]Unit, error) {
	dataFile := explicitDataFile
	if dataFile == "" {
		resolved, err := resolveSiblingDataFile(filepath.Dir(featureFile))
		if err != nil {
			return nil, err
		}
		dataFile = resolved
	}
	if dataFile == "" {
		return []Unit{ast.NewUnit(ast.NewUUID(), ast.SourceRef{URI: featureFile}, featureFile, metaFiles, nil, 0)}, nil
	}

	records, err := readDataRecords(dataFile, cache)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []Unit{ast.NewUnit(ast.NewUUID(), ast.SourceRef{URI: featureFile}, featureFile, metaFiles, nil, 0)}, nil
	}
	units := make([]Unit, len(records))
	for i, rec := range records {
		units[i] = ast.NewUnit(ast.NewUUID(), ast.SourceRef{URI: featureFile}, featureFile, metaFiles, rec, i+1)
	}
	return units, nil
}

// resolveSiblingDataFile enforces "at most one data file per
// directory" (§4.F): a `.csv` or `.json` file sharing the feature
// file's directory. Two such files with no explicit override is an
// AmbiguousCase.
func resolveSiblingDataFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", gwenerr.Wrap(gwenerr.IO, err, "reading %q", dir)
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), csvExt) || strings.HasSuffix(e.Name(), jsonExt) {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	switch len(candidates) {
	case 0:
		return "", nil
	case 1:
		return candidates[0], nil
	default:
		sort.Strings(candidates)
		return "", gwenerr.AmbiguousDataFileError(dir, candidates)
	}
}

// readDataRecords parses a CSV (header row + records) or JSON (array
// of flat objects) data file into ordered name→value records, values
// always rendered as strings (§6 "Data file format"). A cache hit on
// path's absolute form, modification time and size skips the parse
// entirely.
func readDataRecords(path string, cache *dataFileCache) ([]map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "resolving absolute path for %q", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "stating data file %q", path)
	}
	mtime, size := info.ModTime().UnixNano(), info.Size()
	if records, ok := cache.get(abs, mtime, size); ok {
		return records, nil
	}

	records, err := parseDataFile(path)
	if err != nil {
		return nil, err
	}
	cache.put(abs, mtime, size, records)
	return records, nil
}

// parseDataFile does the actual CSV/JSON decoding readDataRecords
// caches the result of.
func parseDataFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "opening data file %q", path)
	}
	defer f.Close()

	if strings.HasSuffix(path, jsonExt) {
		var rows []map[string]any
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, gwenerr.Wrap(gwenerr.IO, err, "parsing JSON data file %q", path)
		}
		out := make([]map[string]string, len(rows))
		for i, row := range rows {
			rec := make(map[string]string, len(row))
			for k, v := range row {
				rec[k] = renderJSONValue(v)
			}
			out[i] = rec
		}
		return out, nil
	}

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.IO, err, "parsing CSV data file %q", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func renderJSONValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
