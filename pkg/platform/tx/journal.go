package tx

import "context"

type journalKey struct{}

// journal records compensations and deferred effects for one transaction.
type journal struct {
	owner       any
	key         string
	shard       int
	undo        []func()
	onCommit    []func()
	afterCommit []func(ctx context.Context)
}

func newJournal(owner any, key string, shard int) *journal {
	return &journal{owner: owner, key: key, shard: shard}
}

func withJournal(ctx context.Context, j *journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// rollback runs compensations newest first.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.onCommit = nil
	j.afterCommit = nil
}

func (j *journal) commit() {
	for _, fn := range j.onCommit {
		fn()
	}
	j.undo = nil
	j.onCommit = nil
}

func (j *journal) after(ctx context.Context) {
	hooks := j.afterCommit
	j.afterCommit = nil
	for _, fn := range hooks {
		fn(ctx)
	}
}

// InTx reports whether ctx belongs to a running transaction.
func InTx(ctx context.Context) bool {
	return journalFrom(ctx) != nil
}

// Key returns the key of the running transaction, if any.
func Key(ctx context.Context) (string, bool) {
	j := journalFrom(ctx)
	if j == nil {
		return "", false
	}
	return j.key, true
}

// RecordUndo registers a compensation that restores state if the running
// transaction fails. Outside a transaction it is a no-op.
func RecordUndo(ctx context.Context, fn func()) {
	if j := journalFrom(ctx); j != nil {
		j.undo = append(j.undo, fn)
	}
}

// OnCommit defers fn until the running transaction commits; fn still runs
// while the key is held. Outside a transaction fn runs immediately.
func OnCommit(ctx context.Context, fn func()) {
	if j := journalFrom(ctx); j != nil {
		j.onCommit = append(j.onCommit, fn)
		return
	}
	fn()
}

// AfterCommit defers fn until the running transaction has committed and
// released its key. Use it for network side effects such as cache
// invalidation. Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if j := journalFrom(ctx); j != nil {
		j.afterCommit = append(j.afterCommit, fn)
		return
	}
	fn(ctx)
}

// Scope returns an opaque identity for the running transaction, or nil.
// Nested calls that join an outer transaction share its scope.
func Scope(ctx context.Context) any {
	if j := journalFrom(ctx); j != nil {
		return j
	}
	return nil
}
