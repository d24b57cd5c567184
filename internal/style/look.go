package style

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// Glass panel look.
const (
	glassBackdrop = "blur(20px)"
	glassRadius   = "16px"
)

// Mutation is one write to a snapshotted property or attribute. An empty
// Value removes the property or attribute.
type Mutation struct {
	Kind     Kind
	Name     string
	Value    string
	Priority string
}

// Look describes the neutral presentation applied during a capture.
type Look struct {
	Background string
	Padding    string
	Glass      bool
}

// CleanLook returns the mutations that strip borders, shadows, outlines and
// filters from the element and apply the requested fill and padding. The
// class attribute loses its border, shadow, ring and outline utilities.
func (s *Snapshot) CleanLook(look Look) []Mutation {
	m := []Mutation{
		prop("border-top-style", "none"),
		prop("border-right-style", "none"),
		prop("border-bottom-style", "none"),
		prop("border-left-style", "none"),
		prop("box-shadow", "none"),
		prop("filter", "none"),
		prop("outline-style", "none"),
		prop("margin-top", "0"),
		prop("margin-right", "0"),
		prop("margin-bottom", "0"),
		prop("margin-left", "0"),
	}
	if look.Background != "" {
		m = append(m, prop("background-color", look.Background))
	}
	if look.Padding != "" {
		m = append(m,
			prop("padding-top", look.Padding),
			prop("padding-right", look.Padding),
			prop("padding-bottom", look.Padding),
			prop("padding-left", look.Padding),
		)
	}
	if look.Glass {
		m = append(m,
			prop("backdrop-filter", glassBackdrop),
			prop("border-top-left-radius", glassRadius),
			prop("border-top-right-radius", glassRadius),
			prop("border-bottom-right-radius", glassRadius),
			prop("border-bottom-left-radius", glassRadius),
		)
	} else {
		m = append(m, prop("backdrop-filter", "none"))
	}

	if i, ok := s.index[indexKey(KindAttribute, "class")]; ok && s.entries[i].Present {
		if cleaned := StripDecorations(s.entries[i].Value); cleaned != s.entries[i].Value {
			m = append(m, Mutation{Kind: KindAttribute, Name: "class", Value: cleaned})
		}
	}
	return m
}

func prop(name, value string) Mutation {
	return Mutation{Kind: KindProperty, Name: name, Value: value, Priority: "important"}
}

// StripDecorations removes border, shadow, ring and outline utility classes
// from a class list.
func StripDecorations(classes string) string {
	fields := strings.Fields(classes)
	kept := fields[:0]
	for _, c := range fields {
		if isDecoration(c) {
			continue
		}
		kept = append(kept, c)
	}
	return strings.Join(kept, " ")
}

func isDecoration(class string) bool {
	// Variant prefixes such as "hover:" or "md:" do not change the utility.
	if i := strings.LastIndexByte(class, ':'); i >= 0 {
		class = class[i+1:]
	}
	for _, p := range []string{"border", "shadow", "ring", "outline"} {
		if class == p || strings.HasPrefix(class, p+"-") {
			return true
		}
	}
	return false
}

// Apply writes mutations to the snapshotted element. Every name must be
// covered by the snapshot; nothing is written if one is not.
func (s *Snapshot) Apply(ctx context.Context, muts []Mutation) error {
	if s.Restored() {
		return ErrAlreadyRestored
	}
	for _, mu := range muts {
		if !s.Covers(mu.Kind, mu.Name) {
			return fmt.Errorf("%w: %s", ErrNotSnapshotted, mu.Name)
		}
	}
	for _, mu := range muts {
		if err := apply(ctx, s.el, mu); err != nil {
			return fmt.Errorf("applying %s: %w", mu.Name, err)
		}
	}
	return nil
}

func apply(ctx context.Context, el dom.Element, m Mutation) error {
	switch m.Kind {
	case KindAttribute:
		if m.Value == "" {
			return el.RemoveAttribute(ctx, m.Name)
		}
		return el.SetAttribute(ctx, m.Name, m.Value)
	default:
		if m.Value == "" {
			return el.RemoveInlineStyle(ctx, m.Name)
		}
		return el.SetInlineStyle(ctx, m.Name, dom.Property{Value: m.Value, Priority: m.Priority})
	}
}
