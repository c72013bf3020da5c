package cypher

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	kgerrors "kgcheck/pkg/errors"
)

type parseError struct {
	line int
	msg  string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

type parser struct {
	toks     []Token
	pos      int
	file     *File
	bindings map[string]*NodePattern
}

// Parse extracts entity and relationship statements from one file.
//
// Recognised shapes are CREATE of labelled nodes, MATCH of labelled nodes
// (optionally followed by simple WHERE equalities), and CREATE of
// relationship chains whose endpoints are inline labelled nodes or variables
// bound earlier in the same ';'-terminated group. Everything else is recorded
// in File.Unrecognized and skipped.
func Parse(src string) *File {
	toks, diags := Lex(src)
	p := &parser{
		toks:     toks,
		file:     &File{},
		bindings: make(map[string]*NodePattern),
	}
	for _, d := range diags {
		line := 0
		if u, ok := d.(*kgerrors.ErrUnterminated); ok {
			line = u.Line
		}
		p.file.Unrecognized = append(p.file.Unrecognized, Unrecognized{Line: line, Reason: d.Error()})
	}
	p.run()
	sort.SliceStable(p.file.Unrecognized, func(i, j int) bool {
		return p.file.Unrecognized[i].Line < p.file.Unrecognized[j].Line
	})
	return p.file
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(off int) Token {
	if p.pos+off < len(p.toks) {
		return p.toks[p.pos+off]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	t := p.peek()
	if !t.is(kind) {
		return t, p.errorf(t, "expected %s, found %s", what, describe(t))
	}
	return p.advance(), nil
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &parseError{line: t.Line, msg: fmt.Sprintf(format, args...)}
}

func describe(t Token) string {
	switch t.Kind {
	case TokEOF:
		return "end of input"
	case TokString:
		return strconv.Quote(t.Text)
	}
	return fmt.Sprintf("%q", t.Text)
}

func isClauseStart(t Token) bool {
	return t.isKeyword("CREATE") || t.isKeyword("MATCH") || t.isKeyword("OPTIONAL")
}

func (p *parser) run() {
	for !p.peek().is(TokEOF) {
		t := p.peek()
		switch {
		case t.is(TokSemicolon):
			p.advance()
			p.bindings = make(map[string]*NodePattern)
		case t.isKeyword("CREATE"):
			p.clause(p.parseCreate)
		case t.isKeyword("MATCH"):
			p.clause(p.parseMatch)
		case t.isKeyword("OPTIONAL") && p.peekAt(1).isKeyword("MATCH"):
			p.advance()
			p.clause(p.parseMatch)
		default:
			p.advance()
			p.sync()
			p.file.Unrecognized = append(p.file.Unrecognized, Unrecognized{
				Line:    t.Line,
				Keyword: t.Text,
				Reason:  "unsupported clause",
			})
		}
	}
}

// sync skips to the next clause keyword or statement separator.
func (p *parser) sync() {
	for {
		t := p.peek()
		if t.is(TokEOF) || t.is(TokSemicolon) || isClauseStart(t) {
			return
		}
		p.advance()
	}
}

// pending collects the results of one clause so a failing clause leaves no
// partial statements behind.
type pending struct {
	entities      []*EntityStatement
	relationships []*RelationshipStatement
	matches       []*NodePattern
	bindings      map[string]*NodePattern
}

func (pd *pending) matched(n *NodePattern) bool {
	for _, m := range pd.matches {
		if m == n {
			return true
		}
	}
	return false
}

func (p *parser) clause(fn func(*pending) error) {
	start := p.pos
	kw := p.peek()
	pd := &pending{bindings: make(map[string]*NodePattern, len(p.bindings))}
	for k, v := range p.bindings {
		pd.bindings[k] = v
	}

	if err := fn(pd); err != nil {
		reason := err.Error()
		line := kw.Line
		if pe, ok := err.(*parseError); ok {
			reason = pe.msg
			line = pe.line
		}
		p.file.Unrecognized = append(p.file.Unrecognized, Unrecognized{Line: line, Keyword: kw.Text, Reason: reason})
		p.pos = start + 1
		p.sync()
		return
	}

	p.file.Entities = append(p.file.Entities, pd.entities...)
	p.file.Relationships = append(p.file.Relationships, pd.relationships...)
	p.file.Matches = append(p.file.Matches, pd.matches...)
	p.bindings = pd.bindings
}

func (p *parser) parseCreate(pd *pending) error {
	p.advance() // CREATE
	for {
		if err := p.parsePattern(pd, true); err != nil {
			return err
		}
		if !p.peek().is(TokComma) {
			return nil
		}
		p.advance()
	}
}

func (p *parser) parseMatch(pd *pending) error {
	p.advance() // MATCH
	for {
		if err := p.parsePattern(pd, false); err != nil {
			return err
		}
		if !p.peek().is(TokComma) {
			break
		}
		p.advance()
	}
	if p.peek().isKeyword("WHERE") {
		return p.parseWhere(pd)
	}
	return nil
}

// parsePattern parses node (-[rel]- node)* and records created entities,
// created relationships or matched nodes.
func (p *parser) parsePattern(pd *pending, create bool) error {
	left, err := p.parseNode()
	if err != nil {
		return err
	}
	p.bindNode(pd, left, create)

	for p.peek().is(TokDash) || p.peek().is(TokLt) {
		rel, err := p.parseRelationship()
		if err != nil {
			return err
		}
		right, err := p.parseNode()
		if err != nil {
			return err
		}
		p.bindNode(pd, right, create)

		if create {
			src, dst := left, right
			if !rel.forward {
				src, dst = right, left
			}
			pd.relationships = append(pd.relationships, &RelationshipStatement{
				SourceVar:  src.Variable,
				TargetVar:  dst.Variable,
				Source:     resolve(pd.bindings, src),
				Target:     resolve(pd.bindings, dst),
				Label:      rel.label,
				Properties: rel.props,
				Line:       rel.line,
			})
		}
		left = right
	}
	return nil
}

func (p *parser) bindNode(pd *pending, n *NodePattern, create bool) {
	if n.Label() == "" {
		return
	}
	if create {
		pd.entities = append(pd.entities, &EntityStatement{Node: n, Line: n.Line})
	} else {
		pd.matches = append(pd.matches, n)
	}
	if n.Variable != "" {
		pd.bindings[n.Variable] = n
	}
}

func resolve(bindings map[string]*NodePattern, n *NodePattern) *NodePattern {
	if n.Label() != "" {
		return n
	}
	if n.Variable == "" {
		return nil
	}
	return bindings[n.Variable]
}

func (p *parser) parseNode() (*NodePattern, error) {
	open, err := p.expect(TokLParen, "'('")
	if err != nil {
		return nil, err
	}
	n := &NodePattern{Line: open.Line}

	if p.peek().is(TokIdent) {
		n.Variable = p.advance().Text
	}
	for p.peek().is(TokColon) {
		p.advance()
		label, err := p.expect(TokIdent, "label")
		if err != nil {
			return nil, err
		}
		n.Labels = append(n.Labels, label.Text)
	}
	switch p.peek().Kind {
	case TokLBrace:
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	case TokParam:
		p.advance()
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	return n, nil
}

type relPattern struct {
	label   string
	props   *PropertyMap
	forward bool
	line    int
}

func (p *parser) parseRelationship() (*relPattern, error) {
	rel := &relPattern{line: p.peek().Line}
	backward := false
	if p.peek().is(TokLt) {
		p.advance()
		backward = true
	}
	if _, err := p.expect(TokDash, "'-'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBracket, "'['"); err != nil {
		return nil, err
	}
	if p.peek().is(TokIdent) {
		p.advance() // relationship variable
	}
	if p.peek().is(TokColon) {
		p.advance()
		label, err := p.expect(TokIdent, "relationship type")
		if err != nil {
			return nil, err
		}
		rel.label = label.Text
	}
	if p.peek().is(TokLBrace) {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		rel.props = props
	}
	if _, err := p.expect(TokRBracket, "']'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokDash, "'-'"); err != nil {
		return nil, err
	}
	forward := false
	if p.peek().is(TokGt) {
		p.advance()
		forward = true
	}
	if forward == backward {
		return nil, p.errorf(p.peek(), "relationship must have exactly one direction")
	}
	if rel.label == "" {
		return nil, &parseError{line: rel.line, msg: "relationship without a type"}
	}
	rel.forward = forward
	return rel, nil
}

func (p *parser) parsePropertyMap() (*PropertyMap, error) {
	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return nil, err
	}
	pm := &PropertyMap{}
	if p.peek().is(TokRBrace) {
		p.advance()
		return pm, nil
	}
	for {
		key := p.peek()
		if !key.is(TokIdent) && !key.is(TokString) {
			return nil, p.errorf(key, "expected property name, found %s", describe(key))
		}
		p.advance()
		if _, err := p.expect(TokColon, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		pm.Props = append(pm.Props, Property{Key: key.Text, Value: val, Line: key.Line})

		if p.peek().is(TokComma) {
			p.advance()
			if p.peek().is(TokRBrace) {
				p.advance()
				return pm, nil
			}
			continue
		}
		if _, err := p.expect(TokRBrace, "',' or '}'"); err != nil {
			return nil, err
		}
		return pm, nil
	}
}

func (p *parser) parseValue() (Value, error) {
	t := p.peek()
	switch t.Kind {
	case TokString:
		p.advance()
		return StringValue(t.Text), nil
	case TokNumber:
		p.advance()
		return NumberValue(t.Text), nil
	case TokDash:
		if p.peekAt(1).is(TokNumber) {
			p.advance()
			return NumberValue("-" + p.advance().Text), nil
		}
	case TokLBracket:
		return p.parseList()
	case TokLBrace:
		pm, err := p.parsePropertyMap()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindMap, Map: pm}, nil
	case TokParam:
		p.advance()
		return RawValue(t.Text), nil
	case TokIdent:
		switch strings.ToLower(t.Text) {
		case "true", "false":
			p.advance()
			return BoolValue(strings.EqualFold(t.Text, "true")), nil
		case "null":
			p.advance()
			return Value{Kind: KindNull}, nil
		}
		return p.parseExpression()
	}
	return Value{}, p.errorf(t, "expected value, found %s", describe(t))
}

func (p *parser) parseList() (Value, error) {
	p.advance() // [
	v := Value{Kind: KindList}
	if p.peek().is(TokRBracket) {
		p.advance()
		return v, nil
	}
	for {
		item, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		v.List = append(v.List, item)
		if p.peek().is(TokComma) {
			p.advance()
			continue
		}
		if _, err := p.expect(TokRBracket, "',' or ']'"); err != nil {
			return Value{}, err
		}
		return v, nil
	}
}

// parseExpression captures identifiers, property access (a.b) and function
// calls (date("2020-01-01")) as raw source text.
func (p *parser) parseExpression() (Value, error) {
	var b strings.Builder
	b.WriteString(p.advance().Text)
	for p.peek().is(TokDot) && p.peekAt(1).is(TokIdent) {
		p.advance()
		b.WriteByte('.')
		b.WriteString(p.advance().Text)
	}
	if !p.peek().is(TokLParen) {
		return RawValue(b.String()), nil
	}

	open := p.advance()
	b.WriteByte('(')
	depth := 1
	for depth > 0 {
		t := p.peek()
		switch t.Kind {
		case TokEOF:
			return Value{}, p.errorf(open, "unbalanced '(' in value")
		case TokLParen:
			depth++
		case TokRParen:
			depth--
		}
		p.advance()
		if depth == 0 {
			break
		}
		if t.is(TokString) {
			b.WriteString(strconv.Quote(t.Text))
		} else {
			b.WriteString(t.Text)
		}
		if t.is(TokComma) {
			b.WriteByte(' ')
		}
	}
	b.WriteByte(')')
	return RawValue(b.String()), nil
}

// parseWhere folds "WHERE v.key = literal [AND ...]" into the properties of
// the node patterns matched by this clause. Predicates on variables bound by
// an earlier clause are dropped so earlier statements are never changed.
// Other predicates fail the clause.
func (p *parser) parseWhere(pd *pending) error {
	p.advance() // WHERE
	type predicate struct {
		node *NodePattern
		prop Property
	}
	var preds []predicate
	for {
		varTok, err := p.expect(TokIdent, "variable")
		if err != nil {
			return err
		}
		if _, err := p.expect(TokDot, "'.'"); err != nil {
			return err
		}
		key, err := p.expect(TokIdent, "property name")
		if err != nil {
			return err
		}
		if eq := p.peek(); !(eq.is(TokOther) && eq.Text == "=") {
			return p.errorf(eq, "only equality predicates are supported in WHERE")
		}
		p.advance()
		val, err := p.parseValue()
		if err != nil {
			return err
		}

		node, ok := pd.bindings[varTok.Text]
		if !ok {
			return p.errorf(varTok, "WHERE references unbound variable %s", varTok.Text)
		}
		if pd.matched(node) {
			preds = append(preds, predicate{node, Property{Key: key.Text, Value: val, Line: key.Line}})
		}

		if !p.peek().isKeyword("AND") {
			break
		}
		p.advance()
	}

	for _, pr := range preds {
		if pr.node.Properties == nil {
			pr.node.Properties = &PropertyMap{}
		}
		pr.node.Properties.Props = append(pr.node.Properties.Props, pr.prop)
	}
	return nil
}
