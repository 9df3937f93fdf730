package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SuiteExtensions lists the file suffixes recognized as suite files.
var SuiteExtensions = []string{".shape.yaml", ".shape.yml", ".shape.json"}

type File struct {
	Path      string
	Variables map[string]any
	Suites    []*Suite
}

type Suite struct {
	Name        string
	Description string
	Tags        []string
	Skip        string
	Only        bool

	// Exactly one of Target, Data and Command is set. Target is a path
	// relative to the suite file; Command runs in the suite file's
	// directory and its standard output is the target.
	Target  string
	Data    any
	HasData bool
	Command string

	Select     string
	Class      string
	Schema     string
	Exhaustive *bool
	Tests      map[string]any

	Line int
}

// IsExhaustive reports whether untested members fail the suite.
func (s *Suite) IsExhaustive() bool {
	if s.Exhaustive == nil {
		return true
	}
	return *s.Exhaustive
}

// HasTag reports whether the suite carries tag.
func (s *Suite) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// inherit fills unset fields from the file-level defaults.
func (s *Suite) inherit(base *Suite) {
	if s.Target == "" && !s.HasData && s.Command == "" {
		s.Target = base.Target
		s.Data = base.Data
		s.HasData = base.HasData
		s.Command = base.Command
	}
	if s.Select == "" {
		s.Select = base.Select
	}
	if s.Class == "" {
		s.Class = base.Class
	}
	if s.Schema == "" {
		s.Schema = base.Schema
	}
	if s.Exhaustive == nil {
		s.Exhaustive = base.Exhaustive
	}
	if len(base.Tags) > 0 {
		s.Tags = append(append([]string{}, base.Tags...), s.Tags...)
	}
}

// IsSuiteFile reports whether path has a suite file extension.
func IsSuiteFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range SuiteExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsJSON reports whether path is a JSON suite file.
func IsJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// baseName strips the directory and suite extension from path.
func baseName(path string) string {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	for _, ext := range SuiteExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return e.File + ": " + e.Message
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
