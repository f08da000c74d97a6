// Package journal persists form events to SQLite.
//
// Every dispatch and reset of a served form appends one row. Rows carry a
// logical sequence number assigned by the journal, never a wall-clock
// timestamp, so two runs over the same requests produce identical journals.
//
// Usage:
//
//	j, err := journal.Open("formflow.db")
//	if err != nil {
//		return err
//	}
//	defer j.Close()
//	remove := f.AddListener(j.Listener(ctx))
//	defer remove()
package journal
