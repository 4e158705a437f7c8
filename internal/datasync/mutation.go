package datasync

import "fmt"

// Collection names one of the cached entity sets.
type Collection string

const (
	Products  Collection = "products"
	Orders    Collection = "orders"
	Customers Collection = "customers"
)

// Phase is where a single facade call is in its life. Every call starts
// Idle, goes InFlight when the first request is sent and ends Committed
// (cache updated) or Failed (cache untouched).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseCommitted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "in-flight"
	case PhaseCommitted:
		return "committed"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Kind string

const (
	KindLoad   Kind = "load"
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindPlace  Kind = "place-order"
)

// Mutation is one transition reported to OnTransition observers.
type Mutation struct {
	Kind       Kind
	Collection Collection
	ID         string
	Phase      Phase
	Err        error
}

type tracker struct {
	f *Facade
	m Mutation
}

func (f *Facade) begin(kind Kind, c Collection, id string) *tracker {
	t := &tracker{f: f, m: Mutation{Kind: kind, Collection: c, ID: id, Phase: PhaseInFlight}}
	f.emit(t.m)
	return t
}

// end reports the outcome of the call and passes err through.
func (t *tracker) end(err error) error {
	if err != nil {
		t.m.Phase, t.m.Err = PhaseFailed, err
		t.f.logger.Debugw("mutation failed", "kind", t.m.Kind, "collection", t.m.Collection, "id", t.m.ID, "err", err)
	} else {
		t.m.Phase = PhaseCommitted
	}
	t.f.emit(t.m)
	return err
}
