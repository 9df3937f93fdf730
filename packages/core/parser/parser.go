package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	suiteKeys = []string{
		"name", "description", "tags", "skip", "only",
		"target", "data", "command", "select", "class", "schema", "exhaustive", "tests",
	}
	fileKeys = append([]string{"suites", "variables"}, suiteKeys...)

	yamlLinePattern = regexp.MustCompile(`line (\d+)`)
)

type Parser struct {
	file string
}

// rawSuite mirrors the suite keys for decoding.
type rawSuite struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Tags        []string       `yaml:"tags"`
	Skip        string         `yaml:"skip"`
	Only        bool           `yaml:"only"`
	Target      string         `yaml:"target"`
	Data        any            `yaml:"data"`
	Command     string         `yaml:"command"`
	Select      string         `yaml:"select"`
	Class       string         `yaml:"class"`
	Schema      string         `yaml:"schema"`
	Exhaustive  *bool          `yaml:"exhaustive"`
	Tests       map[string]any `yaml:"tests"`
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	p := &Parser{file: filename}

	if IsJSON(filename) {
		if err := p.checkJSON(input); err != nil {
			return nil, err
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(input), &root); err != nil {
		return nil, p.fromYAML(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{File: filename, Message: "empty suite file"}
	}
	return p.parseDocument(root.Content[0])
}

func (p *Parser) parseDocument(m *yaml.Node) (*File, error) {
	if m.Kind != yaml.MappingNode {
		return nil, p.errorf(m, "suite file must be a mapping")
	}
	if err := p.checkKeys(m, fileKeys); err != nil {
		return nil, err
	}

	file := &File{Path: p.file}

	if vn := lookup(m, "variables"); vn != nil {
		if err := vn.Decode(&file.Variables); err != nil {
			return nil, p.errorf(vn, "variables must be a mapping")
		}
	}

	base, err := p.parseSuite(m)
	if err != nil {
		return nil, err
	}

	sn := lookup(m, "suites")
	if sn == nil {
		if base.Name == "" {
			base.Name = baseName(p.file)
		}
		if err := p.validate(base, m); err != nil {
			return nil, err
		}
		file.Suites = []*Suite{base}
		return file, nil
	}

	if sn.Kind != yaml.SequenceNode {
		return nil, p.errorf(sn, "suites must be a list")
	}
	if lookup(m, "tests") != nil {
		return nil, p.errorf(lookup(m, "tests"), "top-level tests cannot be combined with suites")
	}

	prefix := base.Name
	if prefix == "" {
		prefix = baseName(p.file)
	}

	seen := make(map[string]int)
	for i, node := range sn.Content {
		if node.Kind != yaml.MappingNode {
			return nil, p.errorf(node, "suite %d must be a mapping", i+1)
		}
		if err := p.checkKeys(node, suiteKeys); err != nil {
			return nil, err
		}
		suite, err := p.parseSuite(node)
		if err != nil {
			return nil, err
		}
		suite.inherit(base)
		if suite.Name == "" {
			suite.Name = fmt.Sprintf("%s #%d", prefix, i+1)
		}
		if line, dup := seen[suite.Name]; dup {
			return nil, p.errorf(node, "duplicate suite name %q (first declared on line %d)", suite.Name, line)
		}
		seen[suite.Name] = node.Line
		if err := p.validate(suite, node); err != nil {
			return nil, err
		}
		file.Suites = append(file.Suites, suite)
	}

	if len(file.Suites) == 0 {
		return nil, p.errorf(sn, "suites list is empty")
	}
	return file, nil
}

func (p *Parser) parseSuite(m *yaml.Node) (*Suite, error) {
	if tn := lookup(m, "tests"); tn != nil {
		if tn.Kind == yaml.AliasNode && tn.Alias != nil {
			tn = tn.Alias
		}
		if tn.Kind != yaml.MappingNode && tn.Tag != "!!null" {
			return nil, p.errorf(tn, "tests must be a mapping of member names")
		}
	}

	var raw rawSuite
	if err := m.Decode(&raw); err != nil {
		return nil, p.fromYAML(err)
	}

	return &Suite{
		Name:        raw.Name,
		Description: raw.Description,
		Tags:        raw.Tags,
		Skip:        raw.Skip,
		Only:        raw.Only,
		Target:      raw.Target,
		Data:        raw.Data,
		HasData:     lookup(m, "data") != nil,
		Command:     raw.Command,
		Select:      raw.Select,
		Class:       raw.Class,
		Schema:      raw.Schema,
		Exhaustive:  raw.Exhaustive,
		Tests:       raw.Tests,
		Line:        m.Line,
	}, nil
}

func (p *Parser) validate(s *Suite, m *yaml.Node) error {
	sources := 0
	for _, set := range []bool{s.Target != "", s.HasData, s.Command != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return p.errorf(m, "suite %q needs a target, data or command", s.Name)
	case sources > 1:
		return p.errorf(m, "suite %q must have only one of target, data and command", s.Name)
	}
	return nil
}

func (p *Parser) checkKeys(m *yaml.Node, allowed []string) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i]
		if !contains(allowed, key.Value) {
			sorted := append([]string{}, allowed...)
			sort.Strings(sorted)
			return p.errorf(key, "unknown key %q (expected one of %s)", key.Value, strings.Join(sorted, ", "))
		}
	}
	return nil
}

// checkJSON rejects input that is YAML but not JSON, with a line number
// for syntax errors.
func (p *Parser) checkJSON(input string) error {
	var v any
	err := json.Unmarshal([]byte(input), &v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := position(input, syntaxErr.Offset)
		return &ParseError{File: p.file, Line: line, Column: col, Message: syntaxErr.Error()}
	}
	return &ParseError{File: p.file, Message: err.Error()}
}

func (p *Parser) fromYAML(err error) error {
	pe := &ParseError{File: p.file, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}

func (p *Parser) errorf(n *yaml.Node, format string, args ...any) error {
	return &ParseError{
		File:    p.file,
		Line:    n.Line,
		Column:  n.Column,
		Message: fmt.Sprintf(format, args...),
	}
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// position converts a byte offset into a 1-based line and column.
func position(input string, offset int64) (int, int) {
	if offset > int64(len(input)) {
		offset = int64(len(input))
	}
	before := input[:offset]
	line := strings.Count(before, "\n") + 1
	col := int(offset) - strings.LastIndex(before, "\n")
	return line, col
}
