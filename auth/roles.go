package auth

import (
	"strings"
	"sync"
)

// Roles is the admin allow-list. It is loaded from configuration and may be
// replaced while the server runs.
type Roles struct {
	mu     sync.RWMutex
	admins map[string]struct{}
}

func NewRoles(uids []string) *Roles {
	r := &Roles{}
	r.Replace(uids)
	return r
}

func (r *Roles) IsAdmin(uid string) bool {
	if uid == "" {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[uid]
	return ok
}

// Replace swaps the whole allow-list. Blank entries are ignored.
func (r *Roles) Replace(uids []string) {
	admins := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		uid = strings.TrimSpace(uid)
		if uid != "" {
			admins[uid] = struct{}{}
		}
	}

	r.mu.Lock()
	r.admins = admins
	r.mu.Unlock()
}

func (r *Roles) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.admins)
}
