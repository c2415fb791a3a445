package crdt

import (
	"sync"

	"go.uber.org/zap"
)

// User is the author identity a PermanentUserData resolves an ID to.
type User struct {
	ID   string
	Name string
}

// PermanentUserData resolves a CRDT item id to the author that created it,
// per spec.md §6/§4.8. It is generalized from the teacher's bare ORSet
// (client -> active add-tags) into client -> author identity, plus a lazy
// "has this deleted range been materialized yet" index: spec.md §4.8
// requires renderSnapshot to iterate deleted structs before
// getUserByDeletedId lookups become valid, "a precondition of later
// lookups".
type PermanentUserData struct {
	mu          sync.RWMutex
	users       map[string]User
	materialized *ORSet // tracks which deleted item ids have been walked
	log         *zap.Logger
}

// NewPermanentUserData creates an empty registry. log may be nil (a no-op
// logger is substituted).
func NewPermanentUserData(log *zap.Logger) *PermanentUserData {
	if log == nil {
		log = zap.NewNop()
	}
	return &PermanentUserData{
		users:        make(map[string]User),
		materialized: NewORSet(),
		log:          log,
	}
}

// RegisterUser associates clientID with an author identity. Called once per
// connected replica (see session.Document.Join in the demo server).
func (p *PermanentUserData) RegisterUser(clientID string, u User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[clientID] = u
}

// GetUserByClientID resolves the author of a still-live item by its
// creating client id.
func (p *PermanentUserData) GetUserByClientID(clientID string) *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.users[clientID]; ok {
		return &u
	}
	return nil
}

// MaterializeDeleted walks every item in ds, marking it as resolvable by
// GetUserByDeletedID. Spec.md §4.8: the snapshot renderer "opens a CRDT
// transaction solely to iterate deleted structs of the permanent-user-data
// delete-sets".
func (p *PermanentUserData) MaterializeDeleted(doc *Doc, ds *DeleteSet) {
	count := 0
	doc.IterateDeletedStructs(ds, func(d DeletedStruct) {
		p.materialized.AddTag(d.ID.String(), d.ID.String())
		count++
	})
	p.log.Debug("materialized deleted structs for permanent user data", zap.Int("count", count))
}

// GetUserByDeletedID resolves the author of a deleted item. Returns nil
// (and logs) if the id's range was never materialized.
func (p *PermanentUserData) GetUserByDeletedID(id ID) *User {
	if !p.materialized.Contains(id.String()) {
		p.log.Warn("deleted id looked up before materialization", zap.String("id", id.String()))
		return nil
	}
	return p.GetUserByClientID(id.Client)
}
