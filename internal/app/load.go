package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/docmodel"
	"github.com/vk/rtlforge/internal/fsutil"
	"github.com/vk/rtlforge/internal/hcldoc"
	"github.com/vk/rtlforge/internal/jsondoc"
	"github.com/vk/rtlforge/internal/yamldoc"
)

// docExtensions lists the document formats the loaders understand.
var docExtensions = []string{".hcl", ".json", ".jsonc", ".yaml", ".yml"}

// loadDocuments reads every design document reachable from the given paths
// and merges them into one set. Directories are walked recursively; files
// are taken as-is. Files load in sorted path order, and instance names must
// be unique across the merged set.
func loadDocuments(ctx context.Context, paths []string) (*docmodel.Set, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", p, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtensions(p, docExtensions...)
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", p, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, p)
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no design documents found under %s", strings.Join(paths, ", "))
	}

	merged := &docmodel.Set{}
	for _, f := range files {
		logger.Debug("Loading design document.", "path", f)
		set, err := loadFile(ctx, f)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(set); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
	}

	seen := make(map[string]bool, len(merged.Instances))
	for _, inst := range merged.Instances {
		if seen[inst.Name] {
			return nil, fmt.Errorf("instance name %q declared more than once", inst.Name)
		}
		seen[inst.Name] = true
	}

	logger.Info("Design documents loaded.",
		"files", len(files),
		"templates", len(merged.Descriptors),
		"instances", len(merged.Instances))
	return merged, nil
}

// loadFile dispatches on the file extension to the matching loader.
func loadFile(ctx context.Context, path string) (*docmodel.Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcldoc.Load(ctx, path)
	case ".json", ".jsonc":
		return jsondoc.Load(ctx, path)
	case ".yaml", ".yml":
		return yamldoc.Load(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported document extension on %s", path)
	}
}
