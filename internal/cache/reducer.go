// Package cache is the in-memory copy of the server's collections. All
// changes go through small actions applied by pure reducers.
package cache

import (
	"slices"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

type Op int

const (
	OpSetAll Op = iota + 1
	OpAdd
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSetAll:
		return "SET_ALL"
	case OpAdd:
		return "ADD"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// Action is one change to a collection of T. Which fields are read
// depends on Op.
type Action[T entity.Identifiable] struct {
	Op     Op
	All    []T            // OpSetAll
	Item   T              // OpAdd
	ID     string         // OpUpdate, OpDelete
	Fields map[string]any // OpUpdate, keyed by json field name
}

func SetAll[T entity.Identifiable](items []T) Action[T] {
	return Action[T]{Op: OpSetAll, All: items}
}

func Add[T entity.Identifiable](item T) Action[T] {
	return Action[T]{Op: OpAdd, Item: item}
}

func Update[T entity.Identifiable](id string, fields map[string]any) Action[T] {
	return Action[T]{Op: OpUpdate, ID: id, Fields: fields}
}

func Delete[T entity.Identifiable](id string) Action[T] {
	return Action[T]{Op: OpDelete, ID: id}
}

// Reduce returns the collection after a. The input slice is never
// modified; when a changes nothing the same slice is returned.
func Reduce[T entity.Identifiable](state []T, a Action[T]) []T {
	switch a.Op {
	case OpSetAll:
		if a.All == nil {
			return []T{}
		}
		return slices.Clone(a.All)
	case OpAdd:
		out := make([]T, len(state), len(state)+1)
		copy(out, state)
		return append(out, a.Item)
	case OpUpdate:
		i := index(state, a.ID)
		if i < 0 {
			return state
		}
		merged, err := entity.Patch(state[i], a.Fields)
		if err != nil {
			return state
		}
		out := slices.Clone(state)
		out[i] = merged
		return out
	case OpDelete:
		i := index(state, a.ID)
		if i < 0 {
			return state
		}
		return slices.Delete(slices.Clone(state), i, i+1)
	}
	return state
}

func index[T entity.Identifiable](state []T, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(state, func(v T) bool { return v.EntityID() == id })
}
