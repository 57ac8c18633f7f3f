// The command queue orders all scheduled work by (time, sequence).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap

package sim

import "container/heap"

// commandQueue is a min-heap of scheduled commands. Ordering is primary by
// timestamp, secondary by enqueue sequence, so events at the same instant
// execute in insertion order regardless of heap internals.
type commandQueue []scheduledCommand

func (q commandQueue) Len() int { return len(q) }

func (q commandQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}

func (q commandQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *commandQueue) Push(x any) {
	*q = append(*q, x.(scheduledCommand))
}

func (q *commandQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// push inserts a scheduled command preserving heap order.
func (q *commandQueue) push(sc scheduledCommand) {
	heap.Push(q, sc)
}

// pop removes and returns the minimum (time, seq) command.
func (q *commandQueue) pop() (scheduledCommand, bool) {
	if q.Len() == 0 {
		return scheduledCommand{}, false
	}
	return heap.Pop(q).(scheduledCommand), true
}

// peek returns the minimum command without removing it.
func (q *commandQueue) peek() (scheduledCommand, bool) {
	if q.Len() == 0 {
		return scheduledCommand{}, false
	}
	return (*q)[0], true
}
