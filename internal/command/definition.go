package command

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is a user-defined command: a CommandLang template rendered
// every time the command is invoked.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Template    string   `yaml:"template"`
	Roles       []string `yaml:"roles"`
	AdminOnly   bool     `yaml:"admin"`
	Source      string   `yaml:"-"`
}

// commandsFile is the layout of a commands YAML file:
//
//	commands:
//	  greet:
//	    description: Greet the caller
//	    template: "Hello {a:n}!"
type commandsFile struct {
	Commands map[string]Definition `yaml:"commands"`
}

// LoadFile reads command definitions from a YAML file. The result is sorted
// by name.
func LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}
	var f commandsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse commands %s: %w", path, err)
	}

	defs := make([]*Definition, 0, len(f.Commands))
	for name, def := range f.Commands {
		def := def
		def.Name = name
		def.Source = SourceConfig
		defs = append(defs, &def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// LoadDir reads every .md file below dir as a command. The file's path
// relative to dir, without extension and with separators replaced by ':',
// names the command; optional YAML frontmatter carries the other fields and
// the rest of the file is the template.
func LoadDir(dir string) ([]*Definition, error) {
	var defs []*Definition
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		def, err := parseMarkdown(content)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, ".md")
		def.Name = strings.ReplaceAll(name, string(filepath.Separator), ":")
		def.Source = SourceFile
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load commands from %s: %w", dir, err)
	}
	return defs, nil
}

var frontmatterDelim = []byte("---")

// parseMarkdown splits "---\n<yaml>\n---\n<template>" into a Definition.
// Without frontmatter the whole file is the template.
func parseMarkdown(content []byte) (*Definition, error) {
	def := &Definition{}
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	first, rest, found := bytes.Cut(content, []byte("\n"))
	if !found || !bytes.Equal(bytes.TrimSpace(first), frontmatterDelim) {
		def.Template = strings.TrimSpace(string(content))
		return def, nil
	}

	var front [][]byte
	lines := bytes.Split(rest, []byte("\n"))
	for i, line := range lines {
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelim) {
			if err := yaml.Unmarshal(bytes.Join(front, []byte("\n")), def); err != nil {
				return nil, fmt.Errorf("invalid frontmatter: %w", err)
			}
			def.Template = strings.TrimSpace(string(bytes.Join(lines[i+1:], []byte("\n"))))
			return def, nil
		}
		front = append(front, line)
	}
	return nil, fmt.Errorf("unterminated frontmatter")
}
