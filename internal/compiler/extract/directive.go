// Package extract mines user-annotated types out of loaded package
// metadata and projects them into NinoType records. It consumes syntax
// only to read directive comments and struct tags; all type questions
// go through the metadata projector.
package extract

import (
	"fmt"
	"go/ast"
	"reflect"
	"strings"
)

const (
	typeDirective       = "//nino:type"
	ctorDirective       = "//nino:ctor"
	refFactoryDirective = "//nino:ref-factory"
)

// Options are the recognized //nino:type options with their defaults.
type Options struct {
	AutoCollect      bool
	ContainPrivate   bool
	AllowInheritance bool
}

func defaultOptions() Options {
	return Options{AutoCollect: true, ContainPrivate: false, AllowInheritance: true}
}

// findTypeDirective scans a doc comment for //nino:type and parses its
// options. The second result reports whether the directive is present.
func findTypeDirective(doc *ast.CommentGroup) (Options, bool, error) {
	if doc == nil {
		return Options{}, false, nil
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(c.Text)
		if text == typeDirective || strings.HasPrefix(text, typeDirective+" ") {
			opts, err := parseOptions(strings.TrimPrefix(text, typeDirective))
			return opts, true, err
		}
	}
	return Options{}, false, nil
}

func parseOptions(rest string) (Options, error) {
	opts := defaultOptions()
	for _, field := range strings.Fields(rest) {
		key, value, hasValue := strings.Cut(field, "=")
		enabled := true
		if hasValue {
			switch value {
			case "true":
				enabled = true
			case "false":
				enabled = false
			default:
				return opts, fmt.Errorf("option %q: value must be true or false", field)
			}
		}
		switch key {
		case "auto-collect":
			opts.AutoCollect = enabled
		case "contain-private":
			opts.ContainPrivate = enabled
		case "allow-inheritance":
			opts.AllowInheritance = enabled
		default:
			return opts, fmt.Errorf("unknown option %q", key)
		}
	}
	return opts, nil
}

// ctorParamOrder scans a factory's doc comment for //nino:ctor and
// returns the optional explicit parameter-name order.
func ctorParamOrder(doc *ast.CommentGroup) (order []string, found bool) {
	if doc == nil {
		return nil, false
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(c.Text)
		if text == ctorDirective {
			return nil, true
		}
		if strings.HasPrefix(text, ctorDirective+"(") && strings.HasSuffix(text, ")") {
			args := strings.TrimSuffix(strings.TrimPrefix(text, ctorDirective+"("), ")")
			for _, a := range strings.Split(args, ",") {
				if a = strings.TrimSpace(a); a != "" {
					order = append(order, a)
				}
			}
			return order, true
		}
	}
	return nil, false
}

func hasRefFactoryDirective(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == refFactoryDirective {
			return true
		}
	}
	return false
}

// memberTag is the parsed nino struct tag of one field.
type memberTag struct {
	Ignore    bool
	Include   bool
	UTF8      bool
	Formatter string
}

func parseMemberTag(raw string) memberTag {
	var mt memberTag
	tag, ok := reflect.StructTag(strings.Trim(raw, "`")).Lookup("nino")
	if !ok {
		return mt
	}
	for _, part := range strings.Split(tag, ",") {
		switch {
		case part == "-":
			mt.Ignore = true
		case part == "include":
			mt.Include = true
		case part == "utf8":
			mt.UTF8 = true
		case strings.HasPrefix(part, "formatter="):
			mt.Formatter = strings.TrimPrefix(part, "formatter=")
		}
	}
	return mt
}
