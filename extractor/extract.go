package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aqlanhadi/rekon/extractor/common"
	"go.uber.org/zap"
)

// ErrDuplicateSource is returned when a single-file role is supplied twice.
var ErrDuplicateSource = errors.New("source supplied more than once")

// File is one parsed upload.
type File struct {
	Name  string       `json:"name"`
	Role  common.Role  `json:"role"`
	Port  common.Port  `json:"port,omitempty"`
	Table common.Table `json:"-"`
}

// Inputs is the set of files for one run. Any number of ticket files may be
// given, one per port; the other roles take exactly one file.
type Inputs struct {
	Tickets  []File `json:"tickets"`
	Invoice  *File  `json:"invoice,omitempty"`
	Summary  *File  `json:"summary,omitempty"`
	Rekening *File  `json:"rekening,omitempty"`
}

// Add places f by its role.
func (in *Inputs) Add(f File) error {
	var slot **File
	switch f.Role {
	case common.RoleTiket:
		in.Tickets = append(in.Tickets, f)
		return nil
	case common.RoleInvoice:
		slot = &in.Invoice
	case common.RoleSummary:
		slot = &in.Summary
	case common.RoleRekening:
		slot = &in.Rekening
	default:
		return fmt.Errorf("%s: unknown role %q", f.Name, f.Role)
	}
	if *slot != nil {
		return fmt.Errorf("%s and %s: %w (%s)", (*slot).Name, f.Name, ErrDuplicateSource, f.Role)
	}
	*slot = &f
	return nil
}

// Missing lists the roles that have no file, in canonical order.
func (in Inputs) Missing() []common.Role {
	var missing []common.Role
	if len(in.Tickets) == 0 {
		missing = append(missing, common.RoleTiket)
	}
	if in.Invoice == nil {
		missing = append(missing, common.RoleInvoice)
	}
	if in.Summary == nil {
		missing = append(missing, common.RoleSummary)
	}
	if in.Rekening == nil {
		missing = append(missing, common.RoleRekening)
	}
	return missing
}

// Validate returns a *MissingSourceError unless every role is present.
func (in Inputs) Validate() error {
	if missing := in.Missing(); len(missing) > 0 {
		return &MissingSourceError{Missing: missing}
	}
	return nil
}

// MissingSourceError means the run is still waiting for some inputs.
type MissingSourceError struct {
	Missing []common.Role
}

func (e *MissingSourceError) Error() string {
	names := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		names[i] = string(r)
	}
	return "waiting for inputs: " + strings.Join(names, ", ")
}

// Load parses one file. An empty role is classified from the name; the port
// always is.
func (c *Classifier) Load(reader io.Reader, filename string, role common.Role) (File, error) {
	if role == "" {
		r, ok := c.Role(filename)
		if !ok {
			return File{}, fmt.Errorf("%s: cannot tell which source this file is", filepath.Base(filename))
		}
		role = r
	}
	table, err := common.ReadTable(reader, filepath.Base(filename))
	if err != nil {
		return File{}, err
	}
	port, _ := c.Port(filename)
	return File{Name: filepath.Base(filename), Role: role, Port: port, Table: table}, nil
}

// LoadDirectory classifies and parses every spreadsheet in dir. Files that are
// not spreadsheets or match no role are skipped.
func (c *Classifier) LoadDirectory(dir string) (Inputs, error) {
	zap.L().Info("scanning directory", zap.String("path", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Inputs{}, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var in Inputs
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xlsx", ".xlsm", ".csv":
		default:
			continue
		}
		role, ok := c.Role(e.Name())
		if !ok {
			zap.L().Warn("skipping unrecognised file", zap.String("file", e.Name()))
			continue
		}

		path := filepath.Join(dir, e.Name())
		fh, err := os.Open(path)
		if err != nil {
			return Inputs{}, err
		}
		f, err := c.Load(fh, path, role)
		fh.Close()
		if err != nil {
			return Inputs{}, err
		}
		if err := in.Add(f); err != nil {
			return Inputs{}, err
		}
		zap.L().Debug("loaded file", zap.String("file", f.Name), zap.String("role", string(f.Role)), zap.String("port", string(f.Port)))
	}
	return in, nil
}
