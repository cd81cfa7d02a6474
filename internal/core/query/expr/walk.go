package expr

// Walk visits n and its children depth-first, left to right. If fn returns
// false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case Member:
		Walk(n.Target, fn)
	case Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case Unary:
		Walk(n.Operand, fn)
	case Convert:
		Walk(n.Operand, fn)
	case NewArray:
		for _, e := range n.Elements {
			Walk(e, fn)
		}
	case *Lambda:
		Walk(n.Body, fn)
	}
}

// FreeSymbols returns the symbols referenced by n that are not bound by a
// lambda nested inside n, in order of first occurrence.
func FreeSymbols(n Node) []*Symbol {
	var (
		out  []*Symbol
		seen = map[*Symbol]bool{}
	)
	var visit func(n Node, bound []*Lambda)
	visit = func(n Node, bound []*Lambda) {
		Walk(n, func(c Node) bool {
			switch c := c.(type) {
			case *Symbol:
				for _, l := range bound {
					if l.Binds(c) {
						return false
					}
				}
				if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			case *Lambda:
				visit(c.Body, append(bound, c))
				return false
			}
			return true
		})
	}
	visit(n, nil)
	return out
}

// IsClosed reports whether n references no free symbols.
func IsClosed(n Node) bool {
	return len(FreeSymbols(n)) == 0
}
