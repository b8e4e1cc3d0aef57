package lower

import (
	"restruct/internal/ir"
	"restruct/internal/stmt"
)

// tryStmt lowers an explicit try region: try body, catches in declared
// order, finally, then the chain continues at end.
func (w *walker) tryStmt(bb *ir.Block, pre []stmt.Stmt) ([]stmt.Stmt, ir.BlockID, error) {
	t := &bb.Term.Try
	exits := tryExits(t)
	w.point("try", bb.Label())

	node := &stmt.TryCatch{}
	var err error
	if node.Try, err = w.region(t.Try, exits...); err != nil {
		return nil, ir.NoBlockID, err
	}
	for _, c := range t.Catches {
		body, err := w.region(c.Body, exits...)
		if err != nil {
			return nil, ir.NoBlockID, err
		}
		node.Catches = append(node.Catches, stmt.Catch{Type: c.Type, Binding: c.Binding, Body: body})
	}
	if t.Finally != ir.NoBlockID {
		node.HasFinally = true
		if node.Finally, err = w.region(t.Finally, t.End); err != nil {
			return nil, ir.NoBlockID, err
		}
	}

	stmts, next := w.jump(t.End)
	return append(append(pre, node), stmts...), next, nil
}
