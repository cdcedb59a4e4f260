package aircraft

import "fmt"

// Store is an external or internal payload item. Expendable stores can be
// released mid-mission; permanent ones cannot.
type Store struct {
	Name       string  `json:"name" toml:"name"`
	Weight     float64 `json:"weight" toml:"weight"` // lbf
	CDR        float64 `json:"cd_r" toml:"cd_r"`     // incremental drag while carried
	Expendable bool    `json:"expendable" toml:"expendable"`
}

// StoreList tracks which stores are still aboard. Release state is reset at
// the start of every synthesis pass so each iteration re-flies the mission
// with a full load.
type StoreList struct {
	stores   []Store
	released []bool
}

func NewStoreList(stores []Store) *StoreList {
	return &StoreList{
		stores:   stores,
		released: make([]bool, len(stores)),
	}
}

// Release marks the named store as dropped. Releasing an unknown or
// non-expendable store is an error; releasing twice is not.
func (s *StoreList) Release(name string) error {
	for i, st := range s.stores {
		if st.Name != name {
			continue
		}
		if !st.Expendable {
			return fmt.Errorf("%w: store %q is not expendable", ErrConfiguration, name)
		}
		s.released[i] = true
		return nil
	}
	return fmt.Errorf("%w: no store named %q", ErrConfiguration, name)
}

// Reset returns every released store to the aircraft.
func (s *StoreList) Reset() {
	for i := range s.released {
		s.released[i] = false
	}
}

// ActiveWeight sums the weight of stores still aboard.
func (s *StoreList) ActiveWeight() float64 {
	var w float64
	for i, st := range s.stores {
		if !s.released[i] {
			w += st.Weight
		}
	}
	return w
}

// TotalWeight sums every store's weight regardless of release state.
func (s *StoreList) TotalWeight() float64 {
	var w float64
	for _, st := range s.stores {
		w += st.Weight
	}
	return w
}

// ActiveDrag sums the incremental drag of stores still aboard.
func (s *StoreList) ActiveDrag() float64 {
	var d float64
	for i, st := range s.stores {
		if !s.released[i] {
			d += st.CDR
		}
	}
	return d
}

// All returns the configured stores.
func (s *StoreList) All() []Store { return s.stores }
