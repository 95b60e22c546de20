package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// Frontmatter is the YAML header of a stored page:
//
//	---
//	syntax: markdown/1.2
//	version: "3"
//	last_modified: 2025-01-02T15:04:05Z
//	---
//	# Page content
type Frontmatter struct {
	Syntax       string `yaml:"syntax,omitempty"`
	Version      string `yaml:"version,omitempty"`
	LastModified string `yaml:"last_modified,omitempty"`
}

// SplitFrontmatter separates the YAML header from the page content. Data
// without a header is returned as content only.
func SplitFrontmatter(data []byte) (Frontmatter, string, error) {
	var meta Frontmatter

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, frontmatterDelimiter+"\n") {
		return meta, text, nil
	}

	rest := text[len(frontmatterDelimiter)+1:]
	var header, content string
	if strings.HasPrefix(rest, frontmatterDelimiter+"\n") {
		content = rest[len(frontmatterDelimiter)+1:]
	} else {
		end := strings.Index(rest, "\n"+frontmatterDelimiter+"\n")
		switch {
		case end >= 0:
			header = rest[:end]
			content = rest[end+len(frontmatterDelimiter)+2:]
		case strings.HasSuffix(rest, "\n"+frontmatterDelimiter):
			header = strings.TrimSuffix(rest, "\n"+frontmatterDelimiter)
		default:
			return meta, "", errors.New("missing closing frontmatter delimiter")
		}
	}

	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return meta, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}
	return meta, content, nil
}

// JoinFrontmatter renders meta as a YAML header followed by content.
func JoinFrontmatter(meta Frontmatter, content string) ([]byte, error) {
	header, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("error encoding frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.Write(header)
	buf.WriteString(frontmatterDelimiter + "\n")
	buf.WriteString(content)
	return buf.Bytes(), nil
}
