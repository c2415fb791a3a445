package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestPermanentUserDataRegisterAndLookup(t *testing.T) {
	p := NewPermanentUserData(zaptest.NewLogger(t))
	p.RegisterUser("client-a", User{ID: "u1", Name: "Ada"})

	u := p.GetUserByClientID("client-a")
	if assert.NotNil(t, u) {
		assert.Equal(t, "Ada", u.Name)
	}
	assert.Nil(t, p.GetUserByClientID("unknown"))
}

func TestPermanentUserDataDeletedLookupRequiresMaterialization(t *testing.T) {
	doc := NewDoc("client-a")
	p := NewPermanentUserData(zaptest.NewLogger(t))
	p.RegisterUser("client-a", User{ID: "u1", Name: "Ada"})

	id := ID{Client: "client-a", Clock: 1}
	assert.Nil(t, p.GetUserByDeletedID(id), "lookup before materialization must fail")

	ds := NewDeleteSet()
	ds.Add(id)
	p.MaterializeDeleted(doc, ds)

	u := p.GetUserByDeletedID(id)
	if assert.NotNil(t, u) {
		assert.Equal(t, "Ada", u.Name)
	}
}
