package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/njchilds90/symlower/internal/ctxlog"
)

// fileRoot holds every top-level block a model file may contain.
type fileRoot struct {
	States        []*stateBlock        `hcl:"state,block"`
	Inputs        []*inputBlock        `hcl:"input,block"`
	Constants     []*constantBlock     `hcl:"constant,block"`
	Interpolants  []*interpolantBlock  `hcl:"interpolant,block"`
	Functions     []*functionBlock     `hcl:"function,block"`
	Variables     []*variableBlock     `hcl:"variable,block"`
	DomainConcats []*domainConcatBlock `hcl:"domain_concat,block"`
	Outputs       []*outputBlock       `hcl:"output,block"`
}

type stateBlock struct {
	Name     string    `hcl:"name,label"`
	Slices   [][]int   `hcl:"slices"`
	Domain   []string  `hcl:"domain,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type inputBlock struct {
	Name     string    `hcl:"name,label"`
	DefRange hcl.Range `hcl:",def_range"`
}

// constantBlock holds either a value (number, list or list of rows) or a
// sparse matrix given by rows, cols and [row, col, value] entries.
type constantBlock struct {
	Name     string         `hcl:"name,label"`
	Value    hcl.Expression `hcl:"value,optional"`
	Rows     *int           `hcl:"rows,optional"`
	Cols     *int           `hcl:"cols,optional"`
	Entries  [][]float64    `hcl:"entries,optional"`
	DefRange hcl.Range      `hcl:",def_range"`
}

type interpolantBlock struct {
	Name     string    `hcl:"name,label"`
	X        []float64 `hcl:"x"`
	Y        []float64 `hcl:"y"`
	Method   string    `hcl:"method,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type functionBlock struct {
	Name       string         `hcl:"name,label"`
	Params     []string       `hcl:"params"`
	Body       hcl.Expression `hcl:"body"`
	Derivative string         `hcl:"derivative,optional"`
	DefRange   hcl.Range      `hcl:",def_range"`
}

type variableBlock struct {
	Name     string         `hcl:"name,label"`
	Expr     hcl.Expression `hcl:"expr"`
	DefRange hcl.Range      `hcl:",def_range"`
}

type domainConcatBlock struct {
	Name            string       `hcl:"name,label"`
	SecondaryPoints *int         `hcl:"secondary_points,optional"`
	Parts           []*partBlock `hcl:"part,block"`
	DefRange        hcl.Range    `hcl:",def_range"`
}

type partBlock struct {
	Child    hcl.Expression `hcl:"child"`
	Domain   string         `hcl:"domain"`
	Starts   []int          `hcl:"starts"`
	Local    [][]int        `hcl:"local"`
	DefRange hcl.Range      `hcl:",def_range"`
}

type outputBlock struct {
	Name     string         `hcl:"name,label"`
	Expr     hcl.Expression `hcl:"expr"`
	DefRange hcl.Range      `hcl:",def_range"`
}

// Load reads every .hcl file under paths (files or directories) and builds
// one model from all of them. Missing paths are skipped.
func Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("model loader started", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("model: no .hcl files found in %v", paths)
	}
	logger.Debug("discovered model files", "count", len(files))

	parser := hclparse.NewParser()
	var roots []*fileRoot
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("model: failed to parse %s: %w", file, diags)
		}
		root, err := decode(file, f)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	m, err := build(ctx, roots)
	if err != nil {
		return nil, err
	}
	m.Files = files
	return m, nil
}

// Parse builds a model from a single in-memory file.
func Parse(ctx context.Context, filename string, src []byte) (*Model, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("model: failed to parse %s: %w", filename, diags)
	}
	root, err := decode(filename, f)
	if err != nil {
		return nil, err
	}
	m, err := build(ctx, []*fileRoot{root})
	if err != nil {
		return nil, err
	}
	m.Files = []string{filename}
	return m, nil
}

func decode(filename string, f *hcl.File) (*fileRoot, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("model: failed to decode %s: %w", filename, diags)
	}
	return &root, nil
}

// findAllHCLFiles walks all given paths and returns the .hcl files found,
// in sorted order within each directory.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("model: error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		var found []string
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return allFiles, nil
}
