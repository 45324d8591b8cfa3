package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// element is a minimal XML tree node. text holds all character data of the
// subtree in document order.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*element
	text     strings.Builder
}

// path is a chain of child names walked from an element.
type path []xml.Name

func atomPath(locals ...string) path {
	p := make(path, len(locals))
	for i, local := range locals {
		p[i] = xml.Name{Space: atomNamespace, Local: local}
	}
	return p
}

func barePath(locals ...string) path {
	p := make(path, len(locals))
	for i, local := range locals {
		p[i] = xml.Name{Local: local}
	}
	return p
}

// qualifiedPairs returns the namespaced and the unqualified form of the same
// path, in lookup order.
func qualifiedPairs(locals ...string) []path {
	return []path{atomPath(locals...), barePath(locals...)}
}

func parseTree(data []byte) (*element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// Input is already UTF-8; whatever the prolog declares is ignored.
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *element
	var stack []*element

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			el := &element{name: t.Name, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("malformed XML: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			for _, open := range stack {
				open.text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("malformed XML: no root element")
	}
	return root, nil
}

func (e *element) attr(local string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// find walks p through direct children and returns the first match in
// document order.
func (e *element) find(p path) *element {
	if len(p) == 0 {
		return e
	}
	for _, child := range e.children {
		if child.name != p[0] {
			continue
		}
		if found := child.find(p[1:]); found != nil {
			return found
		}
	}
	return nil
}

// lookup tries each path in order and returns the first element found.
func (e *element) lookup(paths ...path) *element {
	if e == nil {
		return nil
	}
	for _, p := range paths {
		if found := e.find(p); found != nil {
			return found
		}
	}
	return nil
}

// descendants returns every element below e named name, in document order.
func (e *element) descendants(name xml.Name) []*element {
	var found []*element
	for _, child := range e.children {
		if child.name == name {
			found = append(found, child)
		}
		found = append(found, child.descendants(name)...)
	}
	return found
}

// descendantsFirst returns the descendants matching the first name that
// yields any.
func (e *element) descendantsFirst(names ...xml.Name) []*element {
	for _, name := range names {
		if found := e.descendants(name); len(found) > 0 {
			return found
		}
	}
	return nil
}

func textOf(e *element) string {
	if e == nil {
		return ""
	}
	return e.text.String()
}

// valueOf prefers a non-empty content attribute over the element text.
func valueOf(e *element) string {
	if e == nil {
		return ""
	}
	if value, ok := e.attr("content"); ok && value != "" {
		return value
	}
	return textOf(e)
}

func parseAtom(data []byte) ([]Entry, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, err
	}

	nodes := root.descendantsFirst(atomPath("entry")[0], barePath("entry")[0])
	entries := make([]Entry, 0, len(nodes))
	for _, node := range nodes {
		entries = append(entries, atomEntry(node))
	}
	return entries, nil
}

func atomEntry(node *element) Entry {
	link := selectLink(node)

	id := strings.TrimSpace(textOf(node.lookup(qualifiedPairs("id")...)))
	if id == "" {
		id = link
	}

	updated := strings.TrimSpace(textOf(node.lookup(qualifiedPairs("updated")...)))
	if updated == "" {
		updated = strings.TrimSpace(textOf(node.lookup(qualifiedPairs("published")...)))
	}

	author := node.lookup(
		atomPath("author", "name"),
		path{atomPath("author")[0], barePath("name")[0]},
		barePath("author", "name"),
	)

	summary := valueOf(node.lookup(qualifiedPairs("summary")...))
	content := valueOf(node.lookup(qualifiedPairs("content")...))

	return Entry{
		ID:        id,
		Title:     decodeText(textOf(node.lookup(qualifiedPairs("title")...))),
		Link:      link,
		Updated:   updated,
		Author:    decodeText(textOf(author)),
		BodyPlain: bodyPlain(summary, content),
		Summary:   summary,
		Content:   content,
	}
}

// selectLink picks the first link whose rel is absent or "alternate",
// namespaced links first. Without a qualifying link the first direct link
// child is used.
func selectLink(node *element) string {
	for _, name := range []xml.Name{atomPath("link")[0], barePath("link")[0]} {
		for _, link := range node.descendants(name) {
			rel, ok := link.attr("rel")
			if !ok || rel == "alternate" {
				href, _ := link.attr("href")
				return href
			}
		}
	}

	if link := node.lookup(qualifiedPairs("link")...); link != nil {
		href, _ := link.attr("href")
		return href
	}
	return ""
}
