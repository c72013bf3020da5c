package cypher

// NodePattern is a parenthesised node such as (c:Concept {name: "X"}).
type NodePattern struct {
	Variable string
	// Labels holds every label in source order; Label is the first one.
	Labels     []string
	Properties *PropertyMap
	Line       int
}

// Label returns the primary label, or "" for a bare variable reference.
func (n *NodePattern) Label() string {
	if n == nil || len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// Name returns the identifying property of the node: name, falling back to id.
func (n *NodePattern) Name() string {
	if n == nil {
		return ""
	}
	if name := n.Properties.String("name"); name != "" {
		return name
	}
	return n.Properties.String("id")
}

// EntityStatement is a node created with a label.
type EntityStatement struct {
	Node *NodePattern
	Line int
}

// Type returns the entity type label.
func (s *EntityStatement) Type() string { return s.Node.Label() }

// Properties returns the property bag.
func (s *EntityStatement) Properties() *PropertyMap { return s.Node.Properties }

// RelationshipStatement is a created relationship between two nodes.
// Source and Target are the node patterns the endpoint variables were bound
// to (by MATCH or an earlier CREATE in the same statement group), or the
// inline labelled node. They are nil when the variable is unbound.
type RelationshipStatement struct {
	SourceVar  string
	TargetVar  string
	Source     *NodePattern
	Target     *NodePattern
	Label      string
	Properties *PropertyMap
	Line       int
}

// Resolved reports whether both endpoints are known node patterns with labels.
func (r *RelationshipStatement) Resolved() bool {
	return r.Source.Label() != "" && r.Target.Label() != ""
}

// Unrecognized records input that matched none of the supported statement
// shapes. It is skipped, not rejected.
type Unrecognized struct {
	Line    int
	Keyword string
	Reason  string
}

// File is the extraction result for one source text.
type File struct {
	Entities      []*EntityStatement
	Relationships []*RelationshipStatement
	// Matches lists every labelled node pattern of a MATCH clause.
	Matches      []*NodePattern
	Unrecognized []Unrecognized
}

// EntitiesOfType returns the entity statements with the given type label.
func (f *File) EntitiesOfType(entityType string) []*EntityStatement {
	var out []*EntityStatement
	for _, e := range f.Entities {
		if e.Type() == entityType {
			out = append(out, e)
		}
	}
	return out
}

// HasRelationship reports whether any relationship in the file uses label.
func (f *File) HasRelationship(label string) bool {
	for _, r := range f.Relationships {
		if r.Label == label {
			return true
		}
	}
	return false
}
