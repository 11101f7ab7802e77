package mcu

import (
	"sync"

	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// Faults makes selected request kinds fail.
type Faults struct {
	lock sync.RWMutex
	errs map[msgs.RequestTag]error
}

// Inject makes requests of tag fail with err, nil clears it.
func (f *Faults) Inject(tag msgs.RequestTag, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err == nil {
		delete(f.errs, tag)
		return
	}
	if f.errs == nil {
		f.errs = make(map[msgs.RequestTag]error)
	}
	f.errs[tag] = err
}

// Reset clears all faults.
func (f *Faults) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.errs = nil
}

// Check returns the injected error for tag.
func (f *Faults) Check(tag msgs.RequestTag) error {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.errs[tag]
}
