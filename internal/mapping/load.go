package mapping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads every .cue file in dir as one CUE package and compiles it.
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("mappings directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errors.New("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromValue(value)
}

// CompileString compiles CUE source text.
func CompileString(src string) (*Registry, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return FromValue(value)
}

// FromValue compiles the top-level entity and enum structs of v and
// validates the result. All compile and validation errors are returned
// together.
func FromValue(v cue.Value) (*Registry, error) {
	r := NewRegistry()
	var errs []error

	if entities := v.LookupPath(cue.ParsePath("entity")); entities.Exists() {
		iter, err := entities.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			m, err := CompileEntity(iter.Value())
			if err != nil {
				errs = append(errs, fmt.Errorf("entity.%s: %w", iter.Label(), err))
				continue
			}
			if err := r.AddEntity(*m); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if enums := v.LookupPath(cue.ParsePath("enum")); enums.Exists() {
		iter, err := enums.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			e, err := CompileEnum(iter.Value())
			if err != nil {
				errs = append(errs, fmt.Errorf("enum.%s: %w", iter.Label(), err))
				continue
			}
			if err := r.AddEnum(*e); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, verr := range Validate(r) {
		errs = append(errs, verr)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
