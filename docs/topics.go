// Package docs embeds the tool's documentation topics, one markdown file
// per topic.
package docs

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.md
var topics embed.FS

// GetTopic returns the content of one documentation topic.
func GetTopic(topic string) (string, error) {
	content, err := topics.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics concatenates the content of the named topics. The name "*"
// expands to every available topic.
func GetTopics(names ...string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		selected := []string{name}
		if name == "*" {
			all, err := GetAllTopics()
			if err != nil {
				return "", err
			}
			selected = all
		}
		for _, n := range selected {
			content, err := GetTopic(n)
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// GetAllTopics returns the sorted names of all available topics. The
// readme is the index, not a topic, and is excluded.
func GetAllTopics() ([]string, error) {
	entries, err := topics.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == "readme" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
