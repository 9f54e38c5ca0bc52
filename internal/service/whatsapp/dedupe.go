package whatsapp

import "sync"

// recentMessages remembers the last few message ids so webhook redeliveries are answered once.
type recentMessages struct {
	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
	limit int
}

func newRecentMessages(limit int) *recentMessages {
	return &recentMessages{ids: make(map[string]struct{}, limit), limit: limit}
}

// add records id and reports whether it was new.
func (r *recentMessages) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false
	}
	if len(r.order) == r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.ids, oldest)
	}
	r.ids[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}
