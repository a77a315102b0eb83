// Package input turns the user supplied urls/queries arguments into the flat
// list of pages to visit, expanding CSV references on the way.
package input

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"phone-scraper/logging"
)

// Args is an argument that can be given either as a single string or as a
// list of strings.
type Args struct {
	values []string
	isList bool
}

// Literal builds a single-string argument
func Literal(s string) Args {
	return Args{values: []string{s}}
}

// List builds a list argument
func List(values ...string) Args {
	return Args{values: append([]string(nil), values...), isList: true}
}

// IsZero reports whether the argument was never set
func (a Args) IsZero() bool {
	return len(a.values) == 0
}

// Values returns the entries of the argument in order
func (a Args) Values() []string {
	return append([]string(nil), a.values...)
}

// UnmarshalYAML accepts both `urls: https://a.com` and `urls: [https://a.com, ...]`.
func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*a = Literal(s)
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = List(list...)
	default:
		return fmt.Errorf("expected a string or a list of strings at line %d", node.Line)
	}
	return nil
}

// Merge appends queries to urls: a single query is added as one entry, a
// list of queries is spread.
func Merge(urls, queries Args) []string {
	merged := urls.Values()
	return append(merged, queries.values...)
}

// CSVLoader reads every value of a CSV resource. It must fail when ref is not
// a readable CSV resource.
type CSVLoader interface {
	Load(ctx context.Context, ref string) ([]string, error)
}

// Inflate replaces every entry that is a CSV reference by the values it
// contains and keeps every other entry as a literal URL. It never fails.
func Inflate(ctx context.Context, entries []string, loader CSVLoader, logger logging.Sink) []string {
	var urls []string

	for _, entry := range entries {
		values, err := loader.Load(ctx, entry)
		if err != nil {
			urls = append(urls, entry)
			continue
		}

		logger.Log(fmt.Sprintf("Getting data from %s...", entry), logging.Loading)
		logger.Log(fmt.Sprintf("Got %d lines from csv", len(values)), logging.Done)
		urls = append(urls, values...)
	}

	return urls
}
