package state

import (
	"os"
	"sync"

	"ovsnett/internal/nodes"
	"ovsnett/internal/topology"
)

// Ledger keeps a Store record in sync with a running network
type Ledger struct {
	store *Store

	mu      sync.Mutex
	records map[*topology.Network]*Record
}

var _ topology.Ledger = &Ledger{}

func NewLedger(store *Store) *Ledger {
	return &Ledger{
		store:   store,
		records: map[*topology.Network]*Record{},
	}
}

// ID returns the record ID of a network saved through this ledger
func (l *Ledger) ID(net *topology.Network) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[net]
	if !ok {
		return "", false
	}
	return rec.ID, true
}

func (l *Ledger) Save(net *topology.Network) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[net]
	if !ok {
		rec = &Record{PID: os.Getpid()}
		l.records[net] = rec
	}
	fill(rec, net)

	return l.store.Save(rec)
}

func (l *Ledger) Remove(net *topology.Network) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[net]
	if !ok {
		return nil
	}
	delete(l.records, net)

	return l.store.Delete(rec.ID)
}

// fill rewrites everything but the identity of rec from net
func fill(rec *Record, net *topology.Network) {
	rec.Controller = net.Binding().Target()

	rec.Hosts = rec.Hosts[:0]
	for _, h := range net.Hosts() {
		hr := HostRecord{Name: h.GetName(), IP: h.IP()}
		if ns := h.Namespace(); ns != nil {
			hr.Namespace = ns.Name
			hr.Path = ns.Path
			hr.Owned = ns.Owned
		}
		rec.Hosts = append(rec.Hosts, hr)
	}

	rec.Switches = rec.Switches[:0]
	for _, s := range net.Switches() {
		rec.Switches = append(rec.Switches, SwitchRecord{Name: s.GetName(), Ports: s.Ports()})
	}

	rec.Veths = rec.Veths[:0]
	for _, link := range net.Links() {
		a, b := link.Endpoints()
		rec.Veths = append(rec.Veths, vethRecord(a, b))
	}

	rec.Attachments = rec.Attachments[:0]
	for _, a := range net.Attachments() {
		rec.Attachments = append(rec.Attachments, AttachmentRecord{Interface: a.Interface, Switch: a.Switch})
	}
}

// vethRecord puts the end that stays in the root namespace first
func vethRecord(a, b nodes.Endpoint) VethRecord {
	if _, isHost := a.Node.(nodes.Host); isHost {
		a, b = b, a
	}
	return VethRecord{Name: a.Interface, PeerName: b.Interface}
}
