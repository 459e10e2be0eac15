package simlock

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"
)

// ------------------------
// Fake KeyValue
// ------------------------

type FakeKeyValue struct {
	jetstream.KeyValue // Embed to satisfy interface
	data               map[string][]byte
	revisions          map[string]uint64
	seq                uint64
	trace              []string
	PutErr             error
	// BeforeWrite runs ahead of Create and Update, after the caller has read the key.
	BeforeWrite func()
}

func NewFakeKeyValue() *FakeKeyValue {
	return &FakeKeyValue{
		data:      make(map[string][]byte),
		revisions: make(map[string]uint64),
		trace:     []string{},
	}
}

func (f *FakeKeyValue) write(key string, value []byte) uint64 {
	f.seq++
	f.data[key] = value
	f.revisions[key] = f.seq
	return f.seq
}

func (f *FakeKeyValue) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	f.trace = append(f.trace, "Put")
	if f.PutErr != nil {
		return 0, f.PutErr
	}
	return f.write(key, value), nil
}

func (f *FakeKeyValue) Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error) {
	f.trace = append(f.trace, "Create")
	if f.BeforeWrite != nil {
		f.BeforeWrite()
	}
	if _, ok := f.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	return f.write(key, value), nil
}

func (f *FakeKeyValue) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	f.trace = append(f.trace, "Update")
	if f.BeforeWrite != nil {
		f.BeforeWrite()
	}
	if f.revisions[key] != revision {
		return 0, jetstream.ErrKeyExists
	}
	return f.write(key, value), nil
}

func (f *FakeKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.trace = append(f.trace, "Get")
	val, ok := f.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return &FakeKeyValueEntry{value: val, key: key, revision: f.revisions[key]}, nil
}

type FakeKeyValueEntry struct {
	jetstream.KeyValueEntry
	value    []byte
	key      string
	revision uint64
}

func (f *FakeKeyValueEntry) Value() []byte    { return f.value }
func (f *FakeKeyValueEntry) Key() string      { return f.key }
func (f *FakeKeyValueEntry) Revision() uint64 { return f.revision }
