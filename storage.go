package tinyflag

import (
	"github.com/cdvelop/tinystring"
)

// LocalStorage wraps the synchronous host storage in futures so callers can
// treat it like the asynchronous stores of other platforms.
type LocalStorage struct {
	store Storage
}

// Item is a stored value; Found is false when the key is missing.
type Item struct {
	Value string
	Found bool
}

func (p *Platform) setupStorage() {
	if p.env.LocalStorage == nil {
		return
	}
	store, err := probeStorage(p.env.LocalStorage)
	switch {
	case err != nil:
		p.StorageStatus = StorageDisabled
	case store != nil:
		p.LocalStorage = &LocalStorage{store: store}
		p.StorageStatus = StorageAvailable
	}
}

func probeStorage(get func() (Storage, error)) (store Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			store, err = nil, tinystring.Errf("tinyflag: storage access: %v", r)
		}
	}()
	return get()
}

// Get reads key.
func (s *LocalStorage) Get(key string) *Future[Item] {
	f := NewFuture[Item]()
	guard(f, func() {
		v, ok, err := s.store.GetItem(key)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(Item{Value: v, Found: ok})
	})
	return f
}

// Set stores value under key.
func (s *LocalStorage) Set(key, value string) *Future[struct{}] {
	f := NewFuture[struct{}]()
	guard(f, func() {
		if err := s.store.SetItem(key, value); err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(struct{}{})
	})
	return f
}

// Clear removes key.
func (s *LocalStorage) Clear(key string) *Future[struct{}] {
	f := NewFuture[struct{}]()
	guard(f, func() {
		if err := s.store.RemoveItem(key); err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(struct{}{})
	})
	return f
}

// guard turns a panic in a storage backend into a rejected future.
func guard[T any](f *Future[T], fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.Reject(tinystring.Errf("tinyflag: storage: %v", r))
		}
	}()
	fn()
}
