// Package queryreql compiles queryir queries into RethinkDB ReQL terms
// built with rethinkdb-go.
//
// The output is an r.Term, never a query string: the client serialises it
// once when it is run.
//
//	fetch  -> r.Table(e).Filter(p)...OrderBy(r.Asc(f))...Skip(o).Limit(n)
//	create -> r.Table(e).Insert(doc)
//	modify -> <fetch>.Update(doc, r.UpdateOpts{ReturnChanges: true})
//	delete -> <fetch>.Delete(r.DeleteOpts{ReturnChanges: true})
package queryreql
