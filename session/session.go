// Package session manages connected WebSocket clients and message routing
// for the demo collaboration server, wiring one crdt.Doc + reconcile.Binding
// + editordoc state per document (SPEC_FULL.md §4).
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Polqt/docsync/crdt"
	"github.com/Polqt/docsync/editordoc"
	"github.com/Polqt/docsync/reconcile"
)

// Message types exchanged over the wire.
const (
	MsgJoin     = "join"
	MsgEdit     = "edit"
	MsgTitle    = "title"
	MsgSnapshot = "snapshot"
	MsgAck      = "ack"
	MsgError    = "error"
)

// Message is the wire envelope for every exchange between a client and the
// hub.
type Message struct {
	DocID    string          `json:"doc_id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"sender_id"`
	Ts       time.Time       `json:"ts"`
}

// EditPayload replaces the document's content with a single paragraph
// holding text — the demo server exercises the reconciler with one
// editable paragraph per document rather than a full rich-text surface.
type EditPayload struct {
	Text string `json:"text"`
}

// TitlePayload sets the document's LWW-backed title.
type TitlePayload struct {
	Title string `json:"title"`
}

// SnapshotPayload is pushed to a session on join and after every applied
// change.
type SnapshotPayload struct {
	Text      string            `json:"text"`
	Title     string            `json:"title"`
	EditCount int64             `json:"edit_count"`
	Clock     map[string]uint64 `json:"clock"`
}

// Sender is implemented by the transport layer so Session can push
// messages without depending on it.
type Sender interface {
	Send(msg Message) error
	Close() error
	RemoteAddr() string
}

// Session represents one connected client editing a document.
type Session struct {
	ID     string
	DocID  string
	Author crdt.User
	sender Sender
}

// NewSession creates a session identified by a fresh UUID, attributed to
// author, talking through sender.
func NewSession(docID string, author crdt.User, sender Sender) *Session {
	return &Session{ID: uuid.NewString(), DocID: docID, Author: author, sender: sender}
}

// Push sends a message to this client.
func (s *Session) Push(msg Message) error { return s.sender.Send(msg) }

func buildSchema() *editordoc.Schema {
	return editordoc.NewSchema(
		[]editordoc.NodeTypeSpec{
			{Name: "doc"},
			{Name: "paragraph"},
		},
		[]editordoc.MarkTypeSpec{
			{Name: "bold"},
			{Name: "ychange", Attrs: map[string]editordoc.AttrSpec{
				"type":  {},
				"user":  {},
				"color": {},
			}},
		},
	)
}

func emptyDoc(schema *editordoc.Schema) *editordoc.Node {
	para, _ := schema.Node("paragraph", nil, nil)
	doc, _ := schema.Node("doc", nil, []*editordoc.Node{para})
	return doc
}

// Document holds one collaborative document's full stack: CRDT fragment,
// editor-side state, the reconciler binding, and the CRDTs SPEC_FULL.md
// §4 wires beyond the core (edit-count PNCounter, title LWWRegister).
type Document struct {
	mu sync.RWMutex

	ID string

	doc     *crdt.Doc
	frag    *crdt.XmlFragment
	schema  *editordoc.Schema
	view    *editordoc.View
	binding *reconcile.Binding
	pud     *crdt.PermanentUserData

	title *crdt.LWWRegister[string]
	edits *crdt.PNCounter

	sessions     map[string]*Session
	lastActivity time.Time

	log *zap.Logger
}

// NewDocument creates a new empty document, minting its CRDT client id
// with uuid (SPEC_FULL.md §3 "IDs").
func NewDocument(id string, log *zap.Logger) *Document {
	schema := buildSchema()
	doc := crdt.NewDoc(uuid.NewString())
	frag := doc.Get()
	view := editordoc.NewView(editordoc.State{Doc: emptyDoc(schema), Schema: schema})
	pud := crdt.NewPermanentUserData(log)
	binding := reconcile.New(frag, view, schema, reconcile.Options{
		PermanentUserData: pud,
		Logger:            log,
	})

	return &Document{
		ID:           id,
		doc:          doc,
		frag:         frag,
		schema:       schema,
		view:         view,
		binding:      binding,
		pud:          pud,
		title:        crdt.NewLWWRegister[string](),
		edits:        crdt.NewPNCounter(),
		sessions:     make(map[string]*Session),
		lastActivity: time.Now(),
		log:          log,
	}
}

// ApplyEdit replaces the document's single paragraph with text, driving it
// through the editor view so the Binding's Editor→CRDT translation (C5)
// runs.
func (d *Document) ApplyEdit(text string, author crdt.User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	para, err := buildParagraph(d.schema, text)
	if err != nil {
		d.log.Warn("rejected edit, schema validation failed", zap.Error(err))
		return
	}
	next, err := d.schema.Node("doc", nil, []*editordoc.Node{para})
	if err != nil {
		d.log.Warn("rejected edit doc", zap.Error(err))
		return
	}

	tr := editordoc.NewTransaction(d.view.State()).ReplaceContent(next)
	d.view.Dispatch(tr)
	d.edits.Increment(d.doc.Client, 1)
	d.lastActivity = time.Now()
}

func buildParagraph(schema *editordoc.Schema, text string) (*editordoc.Node, error) {
	if text == "" {
		return schema.Node("paragraph", nil, nil)
	}
	textNode, err := schema.Text(text, nil)
	if err != nil {
		return nil, err
	}
	return schema.Node("paragraph", nil, []*editordoc.Node{textNode})
}

// SetTitle applies a title write through the document's LWWRegister.
func (d *Document) SetTitle(title, writerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title.Set(title, time.Now(), writerID)
	d.lastActivity = time.Now()
}

// Snapshot reads the document's current plain text, title, and edit count.
func (d *Document) Snapshot() SnapshotPayload {
	d.mu.RLock()
	defer d.mu.RUnlock()
	title, _ := d.title.Get()
	return SnapshotPayload{
		Text:      plainText(d.view.State().Doc),
		Title:     title,
		EditCount: d.edits.Value(),
		Clock:     d.doc.StateVector(),
	}
}

func plainText(doc *editordoc.Node) string {
	var out string
	for _, child := range doc.Content {
		for _, n := range child.Content {
			out += n.Text
		}
	}
	return out
}

// Join registers sess with the document and records its author identity
// so later edits resolve to a name and color (crdt.PermanentUserData).
func (d *Document) Join(sess *Session) {
	d.pud.RegisterUser(d.doc.Client, sess.Author)
	d.mu.Lock()
	d.sessions[sess.ID] = sess
	d.lastActivity = time.Now()
	d.mu.Unlock()
}

// Leave removes sess from the document.
func (d *Document) Leave(sessID string) {
	d.mu.Lock()
	delete(d.sessions, sessID)
	d.lastActivity = time.Now()
	d.mu.Unlock()
}

// SessionCount reports how many clients are currently joined.
func (d *Document) SessionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// IdleSince reports the duration since this document last saw activity.
func (d *Document) IdleSince() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return time.Since(d.lastActivity)
}

// Broadcast pushes msg to every joined session except excludeID.
func (d *Document) Broadcast(msg Message, excludeID string) {
	d.mu.RLock()
	sessions := make([]*Session, 0, len(d.sessions))
	for id, s := range d.sessions {
		if id != excludeID {
			sessions = append(sessions, s)
		}
	}
	log := d.log
	d.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Push(msg); err != nil {
			log.Warn("broadcast failed", zap.String("session", s.ID), zap.Error(err))
		}
	}
}

// Hub is the central registry of all active documents, with a background
// reaper evicting idle ones — spec.md's supplemented feature replacing the
// teacher's documented TODO ("periodically evict documents with zero
// active sessions").
type Hub struct {
	mu       sync.RWMutex
	docs     map[string]*Document
	idleTTL  time.Duration
	log      *zap.Logger
	stopOnce sync.Once
	stop     chan struct{}
}

// NewHub creates a Hub that reaps documents idle (zero sessions) for
// longer than idleTTL.
func NewHub(idleTTL time.Duration, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		docs:    make(map[string]*Document),
		idleTTL: idleTTL,
		log:     log,
		stop:    make(chan struct{}),
	}
}

// Run sweeps for idle documents every interval until Stop is called. Call
// as a goroutine: go hub.Run(interval).
func (h *Hub) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.reap()
		case <-h.stop:
			return
		}
	}
}

// Stop ends the reaper goroutine started by Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) reap() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, d := range h.docs {
		if d.SessionCount() == 0 && d.IdleSince() > h.idleTTL {
			delete(h.docs, id)
			h.log.Info("reaped idle document", zap.String("doc_id", id))
		}
	}
}

// GetOrCreate returns the document with the given id, creating it if
// needed.
func (h *Hub) GetOrCreate(docID string) *Document {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[docID]; ok {
		return d
	}
	d := NewDocument(docID, h.log)
	h.docs[docID] = d
	return d
}

// Join registers a session with its document and pushes the current
// snapshot.
func (h *Hub) Join(sess *Session) {
	doc := h.GetOrCreate(sess.DocID)
	doc.Join(sess)
	_ = sess.Push(Message{
		DocID:   sess.DocID,
		Type:    MsgSnapshot,
		Payload: mustMarshal(doc.Snapshot()),
		Ts:      time.Now(),
	})
}

// Leave removes a session from its document.
func (h *Hub) Leave(sess *Session) {
	doc := h.GetOrCreate(sess.DocID)
	doc.Leave(sess.ID)
	h.log.Info("session left", zap.String("session", sess.ID), zap.String("doc", sess.DocID))
}

// Dispatch handles an incoming message from a session, applying it to the
// document and broadcasting the resulting snapshot to every other joined
// session.
func (h *Hub) Dispatch(sess *Session, msg Message) {
	doc := h.GetOrCreate(msg.DocID)

	switch msg.Type {
	case MsgEdit:
		var p EditPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.log.Warn("bad edit payload", zap.Error(err))
			return
		}
		doc.ApplyEdit(p.Text, sess.Author)

	case MsgTitle:
		var p TitlePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.log.Warn("bad title payload", zap.Error(err))
			return
		}
		doc.SetTitle(p.Title, sess.Author.ID)

	default:
		h.log.Warn("unknown message type", zap.String("type", msg.Type))
		return
	}

	doc.Broadcast(Message{
		DocID:   msg.DocID,
		Type:    MsgSnapshot,
		Payload: mustMarshal(doc.Snapshot()),
		Ts:      time.Now(),
	}, sess.ID)
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
