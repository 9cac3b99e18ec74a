package classifier

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// Element is a node of a parsed XML document.
type Element struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

// Parse reads the whole document in one pass and returns its root element.
func Parse(xmlText string) (*Element, error) {
	type frame struct {
		el   *Element
		text strings.Builder
	}

	// A leading byte-order mark is legal before the declaration.
	xmlText = strings.TrimPrefix(xmlText, "\ufeff")

	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	decoder.Strict = true
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		root  *Element
		stack []*frame
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.MalformedXMLError{Err: err}
		}

		switch t := token.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name}
			if len(t.Attr) > 0 {
				el.Attrs = append([]xml.Attr(nil), t.Attr...)
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &models.MalformedXMLError{Err: errors.New("multiple root elements")}
				}
				root = el
			} else {
				parent := stack[len(stack)-1].el
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, &frame{el: el})

		case xml.EndElement:
			top := stack[len(stack)-1]
			top.el.Text = top.text.String()
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, &models.MalformedXMLError{Err: errors.New("character data outside root element")}
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return nil, &models.MalformedXMLError{Err: errors.New("no root element")}
	}
	if len(stack) != 0 {
		return nil, &models.MalformedXMLError{Err: errors.New("unclosed element " + stack[len(stack)-1].el.Name.Local)}
	}
	return root, nil
}

// Value returns the element's own text with surrounding whitespace removed.
func (e *Element) Value() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}

// Attr looks an attribute up by local name.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value), true
		}
	}
	return "", false
}

// Find returns the first element matching path, or nil.
//
// Paths use local names. The first step matches any descendant of e; later steps
// separated by "/" match children and steps separated by "//" match descendants, so
// "DbtrAgt//BICFI" behaves like ElementTree's ".//DbtrAgt//BICFI".
func (e *Element) Find(path string) *Element {
	found := e.FindAll(path)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FindAll returns every element matching path in document order.
func (e *Element) FindAll(path string) []*Element {
	if e == nil {
		return nil
	}
	steps := parsePath(path)
	if len(steps) == 0 {
		return nil
	}

	current := []*Element{e}
	for _, st := range steps {
		seen := make(map[*Element]bool)
		var next []*Element
		for _, c := range current {
			if st.deep {
				c.walk(func(d *Element) {
					if d.Name.Local == st.name && !seen[d] {
						seen[d] = true
						next = append(next, d)
					}
				})
				continue
			}
			for _, child := range c.Children {
				if child.Name.Local == st.name && !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// walk visits every descendant of e in document order, excluding e itself.
func (e *Element) walk(fn func(*Element)) {
	for _, child := range e.Children {
		fn(child)
		child.walk(fn)
	}
}

type pathStep struct {
	name string
	deep bool
}

func parsePath(path string) []pathStep {
	path = strings.TrimPrefix(strings.TrimSpace(path), ".")
	var steps []pathStep
	deep := true
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			deep = true
			continue
		}
		if i := strings.LastIndex(part, ":"); i >= 0 {
			part = part[i+1:]
		}
		steps = append(steps, pathStep{name: part, deep: deep})
		deep = false
	}
	return steps
}
