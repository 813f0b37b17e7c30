package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"csv-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// Extension is the file extension considered for reconciliation.
const Extension = ".csv"

// Identify pairs the files of two folders by base name (extension
// stripped). A name found on one side only yields a pair with an empty path
// for the other side. When one folder holds several files with the same base
// name (orders.csv and orders.CSV), the first in name order is kept and the
// others are logged and skipped. Pairs are sorted by name.
func Identify(dirA string, namesA []string, dirB string, namesB []string, logger *zap.Logger) []reconcile.Pair {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]*reconcile.Pair)

	get := func(base string) *reconcile.Pair {
		p, ok := byName[base]
		if !ok {
			p = &reconcile.Pair{Name: base}
			byName[base] = p
		}
		return p
	}

	assign := func(dir string, names []string, path func(*reconcile.Pair) *string) {
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		for _, name := range sorted {
			slot := path(get(baseName(name)))
			if *slot != "" {
				logger.Warn("Duplicate base name, file skipped",
					zap.String("file", filepath.Join(dir, name)),
					zap.String("kept", *slot),
				)
				continue
			}
			*slot = filepath.Join(dir, name)
		}
	}
	assign(dirA, namesA, func(p *reconcile.Pair) *string { return &p.PathA })
	assign(dirB, namesB, func(p *reconcile.Pair) *string { return &p.PathB })

	pairs := make([]reconcile.Pair, 0, len(byName))
	for _, p := range byName {
		pairs = append(pairs, *p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// Scan lists the top-level CSV files of both folders and pairs them.
func Scan(dirA, dirB string, logger *zap.Logger) ([]reconcile.Pair, error) {
	namesA, err := List(dirA)
	if err != nil {
		return nil, err
	}
	namesB, err := List(dirB)
	if err != nil {
		return nil, err
	}
	return Identify(dirA, namesA, dirB, namesB, logger), nil
}

// List returns the names of the regular CSV files directly inside dir,
// matching the extension case-insensitively.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", reconcile.ErrFolderNotFound, dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
