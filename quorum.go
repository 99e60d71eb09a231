package logmerge

// quorum tracks which live sources currently have a record in the ordering
// buffer. The buffer minimum is safe to emit only while every live source is
// represented, since a source without a buffered record could still produce
// an earlier timestamp.
type quorum struct {
	represented    []bool
	numRepresented int
	numLive        int
}

func newQuorum(sources int) *quorum {
	return &quorum{
		represented: make([]bool, sources),
		numLive:     sources,
	}
}

// arrive marks source as represented after one of its records was buffered
func (q *quorum) arrive(source int) {
	if q.represented[source] {
		return
	}
	q.represented[source] = true
	q.numRepresented++
}

// release clears source after its buffered record was emitted
func (q *quorum) release(source int) {
	if !q.represented[source] {
		return
	}
	q.represented[source] = false
	q.numRepresented--
}

// drain records that source will never produce another record
func (q *quorum) drain(source int) {
	q.release(source)
	q.numLive--
}

// satisfied reports whether every live source is represented
func (q *quorum) satisfied() bool {
	return q.numRepresented == q.numLive
}

// exhausted reports whether every source has drained
func (q *quorum) exhausted() bool {
	return q.numLive == 0
}
